package models

import "time"

// LiveQuote is the most recent session close and volume for a symbol.
type LiveQuote struct {
	LatestPrice *float64 `json:"latest_price,omitempty" bson:"latest_price,omitempty"`
	Volume      *int64   `json:"volume,omitempty" bson:"volume,omitempty"`
}

// NewsSource identifies the publisher of an article.
type NewsSource struct {
	ID   *string `json:"id" bson:"id"`
	Name string  `json:"name" bson:"name"`
}

// NewsItem is a single headline as returned by the news provider.
type NewsItem struct {
	Source      NewsSource `json:"source" bson:"source"`
	Author      *string    `json:"author" bson:"author"`
	Title       string     `json:"title" bson:"title"`
	Description *string    `json:"description" bson:"description"`
	URL         string     `json:"url" bson:"url"`
	URLToImage  *string    `json:"urlToImage" bson:"urlToImage"`
	PublishedAt string     `json:"publishedAt" bson:"publishedAt"`
	Content     *string    `json:"content" bson:"content"`
}

// Sentiment is the provider sentiment summary. Score defaults to 0.
type Sentiment struct {
	Score    float64  `json:"sentiment_score" bson:"sentiment_score"`
	Positive *float64 `json:"positive" bson:"positive"`
	Negative *float64 `json:"negative" bson:"negative"`
	Neutral  *float64 `json:"neutral" bson:"neutral"`
}

// EnrichedRecord is the final output shape. It is never mutated after Merge.
type EnrichedRecord struct {
	Symbol           string     `json:"symbol" bson:"symbol"`
	Date             string     `json:"date" bson:"date"`
	Open             float64    `json:"open" bson:"open"`
	Close            float64    `json:"close" bson:"close"`
	VolumeFromSource int64      `json:"volume_csv" bson:"volume_csv"`
	LatestPrice      *float64   `json:"latest_price" bson:"latest_price"`
	LiveVolume       *int64     `json:"live_volume" bson:"live_volume"`
	USDToLocalRate   *float64   `json:"usd_to_local_rate" bson:"usd_to_local_rate"`
	Sentiment        Sentiment  `json:"sentiment" bson:"sentiment"`
	News             []NewsItem `json:"news" bson:"news"`
	ImpactScore      float64    `json:"impact_score" bson:"impact_score"`
	GeneratedAt      time.Time  `json:"timestamp" bson:"timestamp"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
