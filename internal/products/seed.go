package products

// Seed is the first-run bootstrap dataset for the products collection when
// the platform runs on the local persistent store.
func Seed() []Product {
	return []Product{
		{
			ID:          1,
			Name:        "Paracetamol 500mg",
			Description: "Pain reliever and fever reducer, 20 tablets",
			Category:    "Medication",
			Price:       5.99,
			Stock:       120,
			Rating:      4.6,
			ReviewCount: 214,
		},
		{
			ID:          2,
			Name:        "Vitamin C 1000mg",
			Description: "Immune support supplement, 60 tablets",
			Category:    "Vitamins",
			Price:       12.49,
			Stock:       80,
			Rating:      4.8,
			ReviewCount: 156,
		},
		{
			ID:          3,
			Name:        "Digital Thermometer",
			Description: "Fast-read digital thermometer with fever alarm",
			Category:    "Devices",
			Price:       15.99,
			Stock:       35,
			Rating:      4.5,
			ReviewCount: 89,
		},
		{
			ID:          4,
			Name:        "Blood Pressure Monitor",
			Description: "Automatic upper-arm blood pressure monitor",
			Category:    "Devices",
			Price:       49.99,
			Stock:       18,
			Rating:      4.7,
			ReviewCount: 67,
		},
		{
			ID:                   5,
			Name:                 "Amoxicillin 250mg",
			Description:          "Antibiotic capsules, 21 pack",
			Category:             "Medication",
			Price:                9.25,
			RequiresPrescription: true,
			Stock:                42,
			Rating:               4.4,
			ReviewCount:          38,
		},
		{
			ID:          6,
			Name:        "First Aid Kit",
			Description: "Compact 42-piece first aid kit",
			Category:    "Essentials",
			Price:       24.5,
			Stock:       0,
			Rating:      4.9,
			ReviewCount: 301,
		},
		{
			ID:          7,
			Name:        "Hand Sanitizer 500ml",
			Description: "70% alcohol gel sanitizer",
			Category:    "Essentials",
			Price:       6.75,
			Stock:       200,
			Rating:      4.3,
			ReviewCount: 412,
		},
	}
}

// SeedMaxID is the highest ID present in Seed.
const SeedMaxID = 7
