package doctors

// Seed is the first-run bootstrap dataset for the doctors collection when
// the platform runs on the local persistent store.
func Seed() []Doctor {
	return []Doctor{
		{
			ID:              1,
			Name:            "Dr. Sarah Johnson",
			Specialty:       "Cardiology",
			Hospital:        "City Medical Center",
			Rating:          4.9,
			ReviewCount:     124,
			Fee:             150,
			Location:        "Downtown Medical Plaza",
			Education:       "Harvard Medical School",
			Experience:      "15 years",
			Online:          true,
			Available:       true,
			NextAvailableAt: "Today, 3:00 PM",
		},
		{
			ID:              2,
			Name:            "Dr. Michael Chen",
			Specialty:       "Neurology",
			Hospital:        "University Hospital",
			Rating:          4.8,
			ReviewCount:     98,
			Fee:             180,
			Location:        "University Medical Center",
			Education:       "Stanford University",
			Experience:      "12 years",
			Online:          true,
			Available:       true,
			NextAvailableAt: "Tomorrow, 10:00 AM",
		},
		{
			ID:              3,
			Name:            "Dr. Emily Rodriguez",
			Specialty:       "Pediatrics",
			Hospital:        "Children's Hospital",
			Rating:          4.9,
			ReviewCount:     156,
			Fee:             120,
			Location:        "Westside Medical Building",
			Education:       "Johns Hopkins University",
			Experience:      "10 years",
			Online:          true,
			Available:       true,
			NextAvailableAt: "Today, 4:30 PM",
		},
		{
			ID:              4,
			Name:            "Dr. James Wilson",
			Specialty:       "Orthopedics",
			Hospital:        "Sports Medicine Center",
			Rating:          4.7,
			ReviewCount:     87,
			Fee:             160,
			Location:        "Eastside Sports Clinic",
			Education:       "UCLA Medical School",
			Experience:      "18 years",
			Online:          false,
			Available:       true,
			NextAvailableAt: "Friday, 1:00 PM",
		},
	}
}

// SeedMaxID is the highest ID present in Seed.
const SeedMaxID = 4
