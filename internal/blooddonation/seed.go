package blooddonation

import "time"

// SeedCenters is the bootstrap donation center list.
func SeedCenters() []Center {
	return []Center{
		{
			ID:          1,
			Name:        "Central Blood Bank",
			Location:    "Downtown Medical Plaza",
			Hours:       "Mon-Sat 8:00 AM - 6:00 PM",
			UrgentTypes: []BloodType{"O-", "B-"},
		},
		{
			ID:          2,
			Name:        "University Hospital Donor Center",
			Location:    "University Medical Center",
			Hours:       "Mon-Fri 9:00 AM - 5:00 PM",
			UrgentTypes: []BloodType{"AB-"},
		},
		{
			ID:          3,
			Name:        "Westside Community Drive",
			Location:    "Westside Medical Building",
			Hours:       "Tue-Sun 10:00 AM - 4:00 PM",
			UrgentTypes: []BloodType{"O+", "A-"},
		},
	}
}

// SeedRequests is the bootstrap open-requests list.
func SeedRequests() []Request {
	return []Request{
		{
			ID:        1,
			BloodType: "O-",
			Hospital:  "City Medical Center",
			Urgency:   "critical",
			CreatedAt: time.Date(2025, 1, 18, 8, 0, 0, 0, time.UTC),
		},
		{
			ID:        2,
			BloodType: "B+",
			Hospital:  "Children's Hospital",
			Urgency:   "high",
			CreatedAt: time.Date(2025, 1, 19, 14, 30, 0, 0, time.UTC),
		},
	}
}

// Seed ID ceilings for the collections this package registers.
const (
	seedCentersMaxID  = 3
	seedRequestsMaxID = 2
)
