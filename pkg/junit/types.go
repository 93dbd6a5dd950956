package junit

import "encoding/xml"

// TestSuites is the root of a jUnit document.
type TestSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []*TestSuite `xml:"testsuite"`
}

// TestSuite holds the test cases of one spec file.
type TestSuite struct {
	XMLName    xml.Name            `xml:"testsuite"`
	Name       string              `xml:"name,attr"`
	NumTests   uint                `xml:"tests,attr"`
	NumSkipped uint                `xml:"skipped,attr"`
	NumFailed  uint                `xml:"failures,attr"`
	Duration   float64             `xml:"time,attr"`
	Properties []TestSuiteProperty `xml:"properties>property,omitempty"`
	TestCases  []*TestCase         `xml:"testcase"`
}

// TestSuiteProperty is a key-value pair attached to a suite. Every Playwright
// project that ran tests of the suite is recorded as a "project" property.
type TestSuiteProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// TestCase is one attempt of one spec.
type TestCase struct {
	Name          string         `xml:"name,attr"`
	Classname     string         `xml:"classname,attr"`
	Duration      float64        `xml:"time,attr"`
	SkipMessage   *SkipMessage   `xml:"skipped"`
	FailureOutput *FailureOutput `xml:"failure"`
	SystemOut     string         `xml:"system-out,omitempty"`
}

// SkipMessage marks a skipped test case.
type SkipMessage struct {
	Message string `xml:"message,attr"`
}

// FailureOutput marks a failed test case.
type FailureOutput struct {
	Message string `xml:"message,attr"`
	Output  string `xml:",chardata"`
}
