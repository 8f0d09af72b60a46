package models

import (
	"fmt"
	"time"
)

// Sentiment is the mood category assigned to an entry's content.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// Valid reports whether s is one of the three known categories.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Ptr returns a pointer to a copy of s, for optional fields.
func (s Sentiment) Ptr() *Sentiment {
	return &s
}

// SentimentObservation is the analytics event emitted for a classified entry.
// It is never persisted by this service.
type SentimentObservation struct {
	Email     string `json:"email"`
	Username  string `json:"userName"`
	Sentiment string `json:"sentiment"`
	Timestamp int64  `json:"timestamp"` // Unix millis
}

// RealTimeLabel formats the decorated label used for real-time observations.
func RealTimeLabel(s Sentiment, context string) string {
	return fmt.Sprintf("Real-time: %s - %s", s, context)
}

// Stamped returns o with Timestamp set to now when it was left unset.
func (o SentimentObservation) Stamped(now time.Time) SentimentObservation {
	if o.Timestamp == 0 {
		o.Timestamp = now.UnixMilli()
	}
	return o
}
