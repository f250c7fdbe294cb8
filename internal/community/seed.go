package community

import "time"

func seedTime(daysAgo int) time.Time {
	return time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
}

// Seed is the first-run bootstrap dataset for the community posts
// collection when the platform runs on the local persistent store.
func Seed() []Post {
	return []Post{
		{
			ID:           1,
			Author:       "Dr. Sarah Johnson",
			AuthorDoctor: true,
			Title:        "Managing high blood pressure without medication",
			Content:      "Lifestyle changes that measurably lower blood pressure: a practical starting list for patients who want to try diet and exercise first.",
			Topic:        "Heart Health",
			Likes:        45,
			Comments: []Comment{
				{ID: 1, Author: "Maria K.", Content: "The sodium advice alone made a difference for me.", CreatedAt: seedTime(4)},
				{ID: 2, Author: "Tom R.", Content: "How long before walking daily shows results?", CreatedAt: seedTime(3)},
			},
			CreatedAt: seedTime(5),
		},
		{
			ID:        2,
			Author:    "James P.",
			Title:     "Tips for managing seasonal allergies?",
			Content:   "Every spring is worse than the last. What has actually worked for people here beyond the usual antihistamines?",
			Topic:     "Allergies",
			Likes:     12,
			Comments: []Comment{
				{ID: 1, Author: "Dr. Emily Rodriguez", Content: "Start antihistamines two weeks before your usual season begins.", CreatedAt: seedTime(1)},
			},
			CreatedAt: seedTime(2),
		},
		{
			ID:           3,
			Author:       "Dr. Michael Chen",
			AuthorDoctor: true,
			Title:        "Understanding migraine triggers",
			Content:      "A short guide to keeping a trigger diary and the patterns we most often see in clinic.",
			Topic:        "Neurology",
			Likes:        33,
			Comments:     []Comment{},
			CreatedAt:    seedTime(1),
		},
	}
}

// SeedMaxID is the highest post ID present in Seed.
const SeedMaxID = 3
