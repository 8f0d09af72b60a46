package services

import (
	"strings"

	"github.com/AnshRaj112/serenify-journal/internal/models"
)

// sentimentThreshold is the margin one polarity must exceed the other by.
const sentimentThreshold = 1

var positiveWords = []string{
	"happy", "joy", "love", "excellent", "amazing", "wonderful", "great", "good",
	"fantastic", "awesome", "brilliant", "perfect", "beautiful", "excited",
	"thrilled", "delighted", "pleased", "satisfied", "grateful", "blessed",
	"success", "achievement", "victory", "win", "celebrate", "fun", "enjoy",
	"smile", "laugh", "cheerful", "optimistic", "positive", "proud", "confident",
	"peaceful", "relaxed", "content", "hopeful", "inspired", "motivated",
	"accomplished", "fulfilled", "energetic", "vibrant", "radiant", "blissful",
}

var negativeWords = []string{
	"sad", "angry", "hate", "terrible", "awful", "horrible", "bad", "worst",
	"disappointed", "frustrated", "annoyed", "upset", "depressed", "worried",
	"anxious", "stressed", "tired", "exhausted", "fail", "failure", "problem",
	"issue", "difficult", "hard", "struggle", "pain", "hurt", "cry", "fear",
	"lonely", "hopeless", "miserable", "devastated", "furious", "disgusted",
	"overwhelmed", "confused", "lost", "broken", "defeated", "discouraged",
	"bitter", "resentful", "jealous", "envious", "regret", "shame", "guilt",
}

// Strong words score one extra point.
var strongWords = map[string]struct{}{
	"amazing": {}, "fantastic": {}, "brilliant": {},
	"terrible": {}, "awful": {}, "devastated": {},
}

// Classifier maps entry text to a sentiment category.
type Classifier func(text string) models.Sentiment

// Classify scores text against the positive and negative word lists.
// Matching is case-insensitive substring matching, so "sadly" counts as "sad".
func Classify(text string) models.Sentiment {
	if strings.TrimSpace(text) == "" {
		return models.SentimentNeutral
	}

	lower := strings.ToLower(text)
	positive := score(lower, positiveWords)
	negative := score(lower, negativeWords)

	switch {
	case positive > negative+sentimentThreshold:
		return models.SentimentPositive
	case negative > positive+sentimentThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func score(lower string, words []string) int {
	total := 0
	for _, w := range words {
		if !strings.Contains(lower, w) {
			continue
		}
		total++
		if _, strong := strongWords[w]; strong {
			total++
		}
	}
	return total
}

// SentimentDescription returns the user-facing text for s.
func SentimentDescription(s *models.Sentiment) string {
	if s == nil {
		return "No sentiment analysis"
	}
	switch *s {
	case models.SentimentPositive:
		return "😊 Positive - You seem to be in a good mood!"
	case models.SentimentNegative:
		return "😔 Negative - Take care of yourself, things will get better."
	case models.SentimentNeutral:
		return "😐 Neutral - A balanced perspective on things."
	default:
		return "🤔 Unknown sentiment"
	}
}
