package tester

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/earley/driver"
	"github.com/nihei9/earley/grammar"
	tspec "github.com/nihei9/earley/spec/test"
)

var errMismatch = errors.New("output mismatch")

type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*tspec.TreeDiff
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		msg := fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
		if len(r.Diffs) == 0 {
			return msg
		}
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent1, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent1, diff.ActualPath))
		}
		return fmt.Sprintf("%v\n%v%v", msg, indent2, strings.Join(diffLines, "\n"+indent2))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

type TestCaseWithMetadata struct {
	TestCase *tspec.TestCase
	FilePath string
	Error    error
}

func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCase(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func parseTestCase(testCasePath string) (*tspec.TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tspec.ParseTestCase(f)
}

// Tester runs test cases against a grammar. A test case passes when the grammar derives exactly the
// expected trees from the source, in any order.
type Tester struct {
	Grammar  *grammar.Grammar
	LexSpec  *grammar.LexSpec
	Cases    []*TestCaseWithMetadata
	MaxItems int
}

func (t *Tester) Run() []*TestResult {
	var rs []*TestResult
	for _, c := range t.Cases {
		rs = append(rs, t.runTest(c))
	}
	return rs
}

func (t *Tester) runTest(c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        c.Error,
		}
	}

	var res *driver.Result
	{
		toks, err := driver.NewTokenStream(t.LexSpec, bytes.NewReader(c.TestCase.Source))
		if err != nil {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
		// One more tree than expected is enough to tell that the grammar derives too many trees.
		p, err := driver.NewParser(t.Grammar, driver.MaxItems(t.MaxItems), driver.MaxTrees(len(c.TestCase.Output)+1))
		if err != nil {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
		res, err = p.ParseStream(toks)
		if err != nil {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
	}

	if res.Incomplete() {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("the parser gave up: the number of items exceeded %v", t.MaxItems),
		}
	}

	if c.TestCase.Rejected() {
		if res.Accepted() {
			return &TestResult{
				TestCasePath: c.FilePath,
				Error:        fmt.Errorf("the source was accepted but it must be rejected: %v trees derived", res.TreeCount()),
			}
		}
		return &TestResult{
			TestCasePath: c.FilePath,
		}
	}

	if !res.Accepted() {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("no parse: the source was rejected"),
		}
	}
	if n := res.TreeCount(); n != len(c.TestCase.Output) {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("unexpected tree count: expected %v but got %v", len(c.TestCase.Output), n),
		}
	}

	var actual []*tspec.Tree
	for _, n := range res.Trees() {
		actual = append(actual, genTree(n).Fill())
	}
	if diffs := matchTrees(c.TestCase.Output, actual); len(diffs) > 0 {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        errMismatch,
			Diffs:        diffs,
		}
	}
	return &TestResult{
		TestCasePath: c.FilePath,
	}
}

// matchTrees pairs the expected trees with the actual trees so that each pair has no difference. It finds
// a maximum pairing, so a tree containing wildcards never takes the only tree a more specific one matches.
// For an expected tree left unpaired, matchTrees reports the differences from the closest unpaired tree.
func matchTrees(expected, actual []*tspec.Tree) []*tspec.TreeDiff {
	// same[i] lists the actual trees the i-th expected tree matches.
	same := make([][]int, len(expected))
	for i, exp := range expected {
		for j, act := range actual {
			if len(tspec.DiffTree(exp, act)) == 0 {
				same[i] = append(same[i], j)
			}
		}
	}

	pairOfAct := make([]int, len(actual))
	for j := range pairOfAct {
		pairOfAct[j] = -1
	}
	// augment looks for a path that pairs the i-th expected tree by moving the trees already paired.
	var augment func(i int, visited []bool) bool
	augment = func(i int, visited []bool) bool {
		for _, j := range same[i] {
			if visited[j] {
				continue
			}
			visited[j] = true
			if pairOfAct[j] < 0 || augment(pairOfAct[j], visited) {
				pairOfAct[j] = i
				return true
			}
		}
		return false
	}
	paired := make([]bool, len(expected))
	for i := range expected {
		paired[i] = augment(i, make([]bool, len(actual)))
	}

	var diffs []*tspec.TreeDiff
	for i, exp := range expected {
		if paired[i] {
			continue
		}
		var closest []*tspec.TreeDiff
		for j, act := range actual {
			if pairOfAct[j] >= 0 {
				continue
			}
			ds := tspec.DiffTree(exp, act)
			if closest == nil || len(ds) < len(closest) {
				closest = ds
			}
		}
		diffs = append(diffs, closest...)
	}
	return diffs
}

func genTree(dTree *driver.Node) *tspec.Tree {
	switch {
	case dTree.Anonymous:
		return tspec.NewLeaf(dTree.Text)
	case dTree.Terminal:
		return tspec.NewTerminalTree(dTree.KindName, dTree.Text)
	}
	var children []*tspec.Tree
	if len(dTree.Children) > 0 {
		children = make([]*tspec.Tree, len(dTree.Children))
		for i, c := range dTree.Children {
			children[i] = genTree(c)
		}
	}
	return tspec.NewNonTerminalTree(dTree.KindName, children...)
}
