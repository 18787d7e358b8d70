package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-outcomes/internal/report"
)

const snapshot = `{
  "id": "c1",
  "students": [{"id": "s1"}, {"id": "s2"}],
  "assignment_groups": [{
    "name": "Labs",
    "assignments": [
      {"name": "Lab 1", "points_possible": 10, "submissions": [
        {"user_id": "s1", "score": 9}, {"user_id": "s2", "score": 4}]}
    ]
  }]
}`

const outcomesYAML = `
outcomes:
  - title: Lab skills
    associations:
      - assignment_group: Labs
      - assignment_group: Labs
        assignment: Lab 1
        exceeds_threshold: 0.8
        demonstrates_threshold: 0.5
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScore(t *testing.T) {
	snap := writeFile(t, "course.json", snapshot)
	outs := writeFile(t, "outcomes.yaml", outcomesYAML)

	out, err := run("score", "--snapshot", snap, "--outcomes", outs, "--student", "s2")
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rep.Students) != 1 || rep.Students[0] != "s2" {
		t.Fatalf("students: %v", rep.Students)
	}
	o := rep.Outcomes[0]
	if len(o.Associations) != 2 || o.Associations[1].Thresholds.Exceeds != 0.8 {
		t.Fatalf("associations: %+v", o.Associations)
	}
	row := o.Students[0]
	if row.Percent != 0.4 {
		t.Fatalf("percent: %+v", row)
	}
}

func TestScoreJSONOutcomes(t *testing.T) {
	snap := writeFile(t, "course.json", snapshot)
	outs := writeFile(t, "outcomes.json", `[{"title":"Lab skills","associations":[{"assignment_group":"Labs"}]}]`)
	if out, err := run("score", "--snapshot", snap, "--outcomes", outs); err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
}

func TestCheck(t *testing.T) {
	snap := writeFile(t, "course.json", snapshot)
	good := writeFile(t, "good.yaml", outcomesYAML)
	out, err := run("check", "--snapshot", snap, "--outcomes", good)
	if err != nil || !strings.Contains(out, "all associations found") {
		t.Fatalf("check good: %v %q", err, out)
	}

	bad := writeFile(t, "bad.yml", `
- title: Exams
  associations:
    - assignment_group: Exams
`)
	out, err = run("check", "--snapshot", snap, "--outcomes", bad)
	if !errors.Is(err, errMissing) {
		t.Fatalf("want errMissing, got %v", err)
	}
	if !strings.Contains(out, "Exams: Assignment Group: Exams") {
		t.Fatalf("output: %q", out)
	}
}

func TestInvalidOutcomes(t *testing.T) {
	snap := writeFile(t, "course.json", snapshot)
	bad := writeFile(t, "bad.yaml", `
- description: no title
  associations:
    - assignment_group: Labs
`)
	_, err := run("check", "--snapshot", snap, "--outcomes", bad)
	if err == nil || !strings.Contains(err.Error(), "title") {
		t.Fatalf("want title validation error, got %v", err)
	}
}
