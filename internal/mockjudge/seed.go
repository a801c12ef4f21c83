package mockjudge

import "ojclient/internal/cli/api"

// DemoEmail and DemoPassword identify the seeded account.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "Passw0rd!"
)

func (s *Server) seed() {
	s.addUserLocked(api.User{
		Username:          "demo",
		Email:             DemoEmail,
		FirstName:         "Demo",
		LastName:          "User",
		PreferredLanguage: "python",
	}, DemoPassword)

	s.languages = []api.Language{
		{ID: 1, Name: "Python", Version: "3.11"},
		{ID: 2, Name: "C++", Version: "17"},
		{ID: 3, Name: "Java", Version: "17"},
		{ID: 4, Name: "JavaScript", Version: "20"},
	}

	s.problems = []api.Problem{
		{
			ID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: api.DifficultyEasy, Category: "Arrays",
			Description:  "Given an array of integers and a target, return indices of the two numbers that add up to the target.",
			TimeLimit:    1000,
			MemoryLimit:  256,
			Constraints:  "2 <= n <= 10^4",
			SampleInput:  "4\n2 7 11 15\n9",
			SampleOutput: "0 1",
			Tags:         []string{"array", "hash-table"},
			SampleTestCases: []api.SampleTestCase{
				{Input: "4\n2 7 11 15\n9", ExpectedOutput: "0 1"},
			},
		},
		{
			ID: 2, Title: "Longest Substring Without Repeating Characters", Slug: "longest-substring",
			Difficulty: api.DifficultyMedium, Category: "Strings",
			Description: "Find the length of the longest substring without repeating characters.",
			TimeLimit:   1000, MemoryLimit: 256,
			Tags: []string{"string", "sliding-window"},
		},
		{
			ID: 3, Title: "Median of Two Sorted Arrays", Slug: "median-two-sorted",
			Difficulty: api.DifficultyHard, Category: "Arrays",
			Description: "Return the median of two sorted arrays in O(log(m+n)).",
			TimeLimit:   2000, MemoryLimit: 256,
			Tags: []string{"array", "binary-search"},
		},
	}
}
