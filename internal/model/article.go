package model

import "time"

// Article is one scraped news article
type Article struct {
	ID      int       `json:"id"`
	Date    time.Time `json:"date"`
	Title   string    `json:"title"`
	Link    string    `json:"link"`
	Content string    `json:"content"`
}

// ArticleDateLayout is the date format used in the articles CSV
const ArticleDateLayout = "2006-01-02"
