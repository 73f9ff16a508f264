package toon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/agentscout/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"dotted name", "Foo.__init__", "Foo.__init__"},
		{"explanation", "This function ('run_sync') appears to coordinate multiple tasks or services.", "This function ('run_sync') appears to coordinate multiple tasks or services."},
		{"explanation with list", "It interacts with external services like openai, requests.", `"It interacts with external services like openai, requests."`},
		{"archetype", "Reasoning & Planning Agent", "Reasoning & Planning Agent"},
		{"signal", "external_io_dependencies: openai", `"external_io_dependencies: openai"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

func sampleReport() *model.Report {
	return &model.Report{
		Repo: "shop",
		Summary: model.Summary{
			Files:           2,
			Skipped:         1,
			Languages:       []string{"python", "typescript"},
			TotalComplexity: 12,
			Fingerprint:     "9f86d081884c7d65",
		},
		Files: map[string]model.FileReport{
			"src/pay.py": {
				Language:   "python",
				Complexity: 12,
				AST: model.ParseResult{
					Mode: "exact",
					Declarations: []model.Declaration{
						{Kind: model.Function, Name: "process_payment", StartLine: 3, EndLine: 9},
					},
					Imports: []string{"requests", "src.stripe_api"},
				},
			},
			"src/stripe_api.py": {
				Language: "python",
				AST:      model.ParseResult{Mode: "exact", Error: model.SyntaxError},
			},
		},
		Dependencies: model.DependencyMap{
			"src/pay.py":        {"requests", "src.stripe_api"},
			"src/stripe_api.py": {},
		},
		InternalDependencies: []model.Dependency{
			{Source: "src/pay.py", Target: "src/stripe_api.py", Imports: []string{"src.stripe_api"}},
		},
		AgentOpportunities: []model.AgentOpportunity{
			{
				FilePath:           "src/pay.py",
				FunctionName:       "process_payment",
				StartLine:          3,
				EndLine:            9,
				Signals:            []string{"external_io_dependencies: requests, src.stripe_api", "orchestration_naming_pattern"},
				Verdict:            model.Candidate,
				RiskLevel:          model.RiskMedium,
				SuggestedAgentType: model.OrchestrationAgent,
				Explanation:        "Coordinates services.",
			},
		},
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	got := Encode(sampleReport())
	want := []string{
		"repo: shop",
		"summary:",
		"  files: 2",
		"  skipped: 1",
		"  languages[2]: python,typescript",
		"  total_complexity: 12",
		"  fingerprint: 9f86d081884c7d65",
		"files[2]{path,language,mode,complexity,error}:",
		`  src/pay.py,python,exact,12,""`,
		"  src/stripe_api.py,python,exact,0,SyntaxError",
		"declarations[1]{file,name,kind,start,end}:",
		"  src/pay.py,process_payment,function,3,9",
		"imports[2]{file,module}:",
		"  src/pay.py,requests",
		"  src/pay.py,src.stripe_api",
		"dependencies[1]{source,target,imports}:",
		"  src/pay.py,src/stripe_api.py,src.stripe_api",
		"opportunities[1]{file,name,start,end,verdict,risk,archetype,signals,explanation}:",
		`  src/pay.py,process_payment,3,9,candidate,medium,Orchestration Agent,"external_io_dependencies: requests, src.stripe_api; orchestration_naming_pattern",Coordinates services.`,
	}

	lines := strings.Split(got, "\n")
	require.Len(t, lines, len(want), got)
	for i := range want {
		assert.Equal(t, want[i], lines[i], "line %d", i)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	first := Encode(sampleReport())
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Encode(sampleReport()))
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Repo: "empty"})
	for _, section := range []string{
		"  languages[0]:\n",
		"files[0]{path,language,mode,complexity,error}:",
		"declarations[0]{file,name,kind,start,end}:",
		"opportunities[0]{file,name,start,end,verdict,risk,archetype,signals,explanation}:",
	} {
		assert.Contains(t, got, section)
	}
}
