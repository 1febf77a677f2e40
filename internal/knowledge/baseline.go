// internal/knowledge/baseline.go
package knowledge

import "expo-chat-workers/internal/knowledge/tree"

// DefaultBaseline is the seed corpus compiled into the service. It is the
// lowest-precedence layer: every overlay source can override any of it.
// Returns a fresh tree each call so a caller can't poison the seed.
func DefaultBaseline() tree.Tree {
	return tree.Tree{
		"event": tree.Tree{
			"name":    "Horizon Tech Expo 2026",
			"tagline": "Where product teams meet their next partners",
			"dates":   "August 7-8, 2026",
			"city":    "Austin, TX",
			"venue": tree.Tree{
				"name":     "Riverbend Convention Center",
				"address":  "500 Riverside Dr, Austin, TX 78704",
				"capacity": float64(2000),
			},
			"schedule": tree.Tree{
				"doorsOpen": "8:00 AM",
				"keynote":   "9:30 AM, Main Stage",
			},
		},
		"sponsorship": tree.Tree{
			"contactEmail":  "sponsors@horizontechexpo.com",
			"prospectusUrl": "https://horizontechexpo.com/sponsor-prospectus.pdf",
			"tiers": tree.Tree{
				"platinum": tree.Tree{
					"price": float64(25000),
					"benefits": []interface{}{
						"Keynote stage mention",
						"20x20 booth in the main hall",
						"12 full-access passes",
					},
				},
				"gold": tree.Tree{
					"price": float64(12000),
					"benefits": []interface{}{
						"10x10 booth",
						"6 full-access passes",
					},
				},
				"silver": tree.Tree{
					"price": float64(5000),
					"benefits": []interface{}{
						"Shared expo table",
						"2 full-access passes",
					},
				},
			},
		},
		"tickets": tree.Tree{
			"general":         float64(299),
			"vip":             float64(749),
			"registrationUrl": "https://horizontechexpo.com/register",
		},
		"contact": tree.Tree{
			"email": "hello@horizontechexpo.com",
			"phone": "+1 (512) 555-0137",
		},
	}
}
