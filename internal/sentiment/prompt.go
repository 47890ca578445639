package sentiment

// Bucket names a score range used for metrics and prompt selection.
type Bucket string

const (
	BucketPositive Bucket = "positive"
	BucketNeutral  Bucket = "neutral"
	BucketNegative Bucket = "negative"
)

// The three prompts are literal contracts; changing them breaks reproducibility
// of generated imagery across deployments.
const (
	promptPositive = "A bright yellow and red or orange and lightgreen gradation heart, white background, minimalistic"
	promptNeutral  = "A grey and white and green or white and bluegreen gradation circle, white background, minimalistic"
	promptNegative = "A darkblue and darkgreen or darkred and grey gradation star, white background, minimalistic"
)

// BucketFor maps a positivity score to its bucket:
// score >= 0.7 positive, 0.4 <= score < 0.7 neutral, score < 0.4 negative.
func BucketFor(score float64) Bucket {
	switch {
	case score >= 0.7:
		return BucketPositive
	case score >= 0.4:
		return BucketNeutral
	default:
		return BucketNegative
	}
}

// Prompt returns the image-generation prompt for a positivity score.
func Prompt(score float64) string {
	switch BucketFor(score) {
	case BucketPositive:
		return promptPositive
	case BucketNegative:
		return promptNegative
	default:
		return promptNeutral
	}
}
