package taxonomy

const (
	DefaultCategory = "Technology"
	DefaultTag      = "general"
)

// Default returns the built-in rule table.
func Default() Taxonomy {
	return Taxonomy{
		Rules: []Rule{
			{Keyword: "python", Category: "Programming", Tags: []string{"python", "programming"}},
			{Keyword: "go", Category: "Programming", Tags: []string{"go", "golang", "programming"}},
			{Keyword: "rust", Category: "Programming", Tags: []string{"rust", "programming"}},
			{Keyword: "javascript", Category: "Programming", Tags: []string{"javascript", "web-development"}},
			{Keyword: "typescript", Category: "Programming", Tags: []string{"typescript", "web-development"}},
			{Keyword: "ruby", Category: "Programming", Tags: []string{"ruby", "programming"}},
			{Keyword: "docker", Category: "DevOps", Tags: []string{"docker", "devops"}},
			{Keyword: "nginx", Category: "DevOps", Tags: []string{"nginx", "web-server"}},
			{Keyword: "http", Category: "Web Development", Tags: []string{"http", "networking"}},
			{Keyword: "api", Category: "Web Development", Tags: []string{"api", "web-services"}},
			{Keyword: "data", Category: "Data Science", Tags: []string{"data", "data-analysis"}},
			{Keyword: "machine learning", Category: "Data Science", Tags: []string{"machine-learning", "ai"}},
			{Keyword: "ethics", Category: "Technology", Tags: []string{"ethics", "philosophy"}},
			{Keyword: "finance", Category: "Technology", Tags: []string{"finance", "fintech"}},
			{Keyword: "iot", Category: "Technology", Tags: []string{"iot", "sensors"}},
			{Keyword: "security", Category: "Security", Tags: []string{"security", "cybersecurity"}},
		},
		DefaultCategory: DefaultCategory,
		DefaultTag:      DefaultTag,
		Match:           MatchSubstring,
	}
}
