// Package badge lists the badges earned by users.
package badge

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	TypeSite   = 1
	TypeCourse = 2

	// ListLimit is the number of badges listed per user.
	ListLimit = 4
)

type (
	// Badge is a badge issued to a user.
	Badge struct {
		ID          int       `json:"id" db:"id"`
		Name        string    `json:"name" db:"name"`
		Description string    `json:"description" db:"description"`
		Type        int       `json:"type" db:"type"`
		CourseID    int       `json:"courseid" db:"courseid"`
		ContextID   int       `json:"-" db:"contextid"`
		UniqueHash  string    `json:"uniquehash" db:"uniquehash"`
		DateIssued  time.Time `json:"dateissued" db:"dateissued"`
		DateExpire  time.Time `json:"dateexpire" db:"dateexpire"`
		Visible     bool      `json:"visible" db:"visible"`
		IssuedID    int       `json:"issuedid" db:"issuedid"`
	}

	Repository interface {
		// QueryUserBadges returns the latest badges of userID; courseID 0 means every course.
		QueryUserBadges(ctx context.Context, userID, courseID, limit int) ([]Badge, error)
	}

	// Item is a badge of a printed badge list.
	Item struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		URL      string `json:"url"`
		ImageURL string `json:"imageurl"`
	}
)

// IsExpired reports whether b expired before now.
func (b Badge) IsExpired(now time.Time) bool {
	return !b.DateExpire.IsZero() && b.DateExpire.Before(now)
}

// ImageURL returns the url of the badge image.
func (b Badge) ImageURL(wwwRoot string) string {
	return fmt.Sprintf("%s/pluginfile.php/%d/badges/badgeimage/%d/f1", wwwRoot, b.ContextID, b.ID)
}

// URL returns the url of the issued badge page.
func (b Badge) URL(wwwRoot string) string {
	if b.UniqueHash == "" {
		return ""
	}
	return wwwRoot + "/badges/badge.php?" + url.Values{"hash": {b.UniqueHash}}.Encode()
}

// PrintList returns the items of badges as listed on profiles; expired is appended to the
// names of expired badges.
func PrintList(badges []Badge, wwwRoot, expired string, now time.Time) []Item {
	items := make([]Item, 0, len(badges))
	for _, b := range badges {
		name := b.Name
		if b.IsExpired(now) {
			name += "(" + expired + ")"
		}
		items = append(items, Item{
			ID:       b.ID,
			Name:     name,
			URL:      b.URL(wwwRoot),
			ImageURL: b.ImageURL(wwwRoot),
		})
	}
	return items
}

func (it Item) Export() map[string]interface{} {
	out := map[string]interface{}{
		"id":       it.ID,
		"name":     it.Name,
		"url":      false,
		"imageurl": it.ImageURL,
	}
	if it.URL != "" {
		out["url"] = it.URL
	}
	return out
}

// Export returns the template data of badges.
func Export(badges []Badge) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(badges))
	for _, b := range badges {
		out = append(out, map[string]interface{}{
			"id":          b.ID,
			"name":        b.Name,
			"description": b.Description,
			"courseid":    b.CourseID,
			"uniquehash":  b.UniqueHash,
			"dateissued":  b.DateIssued.Unix(),
		})
	}
	return out
}
