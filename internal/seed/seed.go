// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"shapediary/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	EntriesPerUser int
	ShouldClean    bool
}

var (
	// moods lean on the default lexicon so seeded entries land in all
	// three sentiment buckets.
	positiveMoods = []string{
		"happy", "great", "wonderful", "grateful", "excited", "proud", "calm",
	}
	negativeMoods = []string{
		"sad", "tired", "angry", "anxious", "lonely", "stressed", "disappointed",
	}

	dayTopics = []string{
		"work", "a long walk", "cooking dinner", "the gym", "a phone call with family",
		"reading", "the garden", "a meeting that ran long", "the weather",
		"an old friend", "cleaning the apartment", "a new recipe",
	}
)

// Seeder populates the database with demo users and diary entries.
type Seeder struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes every seeded row. Posts go first because of the foreign key.
func (s *Seeder) ClearAll() error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	log.Println("Cleared users and posts")
	return nil
}

// SeedUsers creates n demo users, all with the password "password".
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		// the index keeps usernames unique within a batch
		users = append(users, &models.User{
			Username: fmt.Sprintf("%s_%d%d", strings.ToLower(gofakeit.FirstName()), i, s.r.Intn(1000)),
			Password: string(hash),
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	log.Printf("Seeded %d users", len(users))
	return users, nil
}

// SeedEntries writes perUser diary entries for each user, spread back over the
// last 90 days.
func (s *Seeder) SeedEntries(users []*models.User, perUser int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(users)*perUser)
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			daysBack := s.r.Intn(90)
			posts = append(posts, &models.Post{
				Content:   s.entryText(),
				UserID:    u.ID,
				CreatedAt: time.Now().Add(-time.Duration(daysBack) * 24 * time.Hour),
			})
		}
	}
	if len(posts) == 0 {
		return posts, nil
	}
	if err := s.db.Create(&posts).Error; err != nil {
		return nil, fmt.Errorf("seed entries: %w", err)
	}
	log.Printf("Seeded %d diary entries", len(posts))
	return posts, nil
}

// Run seeds users and entries, optionally clearing the tables first.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}
	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	_, err = s.SeedEntries(users, opts.EntriesPerUser)
	return err
}

func (s *Seeder) entryText() string {
	topic := dayTopics[s.r.Intn(len(dayTopics))]
	switch s.r.Intn(3) {
	case 0:
		mood := positiveMoods[s.r.Intn(len(positiveMoods))]
		return fmt.Sprintf("Today was about %s. I felt really %s about it.", topic, mood)
	case 1:
		mood := negativeMoods[s.r.Intn(len(negativeMoods))]
		return fmt.Sprintf("Spent most of the day on %s. Honestly I was %s.", topic, mood)
	default:
		// no lexicon words: scores as neutral
		return fmt.Sprintf("Mostly %s today. Nothing else worth writing down.", topic)
	}
}
