package lang

func init() {
	for _, l := range []*Language{
		{Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
		{Name: "typescript", Extensions: []string{".ts", ".tsx"}},
		{Name: "go", Extensions: []string{".go"}},
		{Name: "java", Extensions: []string{".java"}},
	} {
		l.Mode = ModeHeuristic
		Languages[l.Name] = l
	}
}
