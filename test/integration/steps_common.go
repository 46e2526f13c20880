package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/joshmarlow/data-schema/pkg/audit"
	"github.com/joshmarlow/data-schema/pkg/loader"
	"github.com/joshmarlow/data-schema/pkg/model"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^the data-schema server is running$`, s.theServerIsRunning)
	sc.Step(`^the following schemas exist:$`, s.theFollowingSchemasExist)

	// Authentication steps
	sc.Step(`^I am authenticated as "([^"]*)"$`, s.iAmAuthenticatedAs)
	sc.Step(`^I am not authenticated$`, s.iAmNotAuthenticated)
	sc.Step(`^I present a token signed with the wrong secret$`, s.iPresentATokenSignedWithTheWrongSecret)
	sc.Step(`^I present an expired token$`, s.iPresentAnExpiredToken)

	// Request steps
	sc.Step(`^I send a (GET|DELETE) request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a (POST|PUT) request to "([^"]*)" with body:$`, s.iSendARequestWithBody)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should match JSON:$`, s.theResponseShouldMatchJSON)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.theResponseFieldShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)

	// Database steps
	sc.Step(`^schema "([^"]*)" should have (\d+) fields? in the database$`, s.schemaShouldHaveFieldsInTheDatabase)
	sc.Step(`^schema "([^"]*)" should not exist in the database$`, s.schemaShouldNotExistInTheDatabase)
	sc.Step(`^an audit message "([^"]*)" should be recorded for schema "([^"]*)"$`, s.anAuditMessageShouldBeRecorded)
}

// Background steps

func (s *StepsContext) theServerIsRunning() error {
	s.authToken = ""
	if err := s.deleteAllSchemas(); err != nil {
		return err
	}
	return s.tc.ResetAudit()
}

// deleteAllSchemas goes through the API so the server's schema cache is purged
func (s *StepsContext) deleteAllSchemas() error {
	token, err := issueToken(s.tc, "cleanup")
	if err != nil {
		return err
	}

	body, status, err := s.request("GET", "/schemas", nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("listing schemas returned %d: %s", status, body)
	}

	var schemas []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &schemas); err != nil {
		return err
	}
	for _, ds := range schemas {
		if _, status, err := s.request("DELETE", "/schemas/"+ds.Name, nil, token); err != nil {
			return err
		} else if status != http.StatusNoContent {
			return fmt.Errorf("deleting schema %s returned %d", ds.Name, status)
		}
	}
	return nil
}

func (s *StepsContext) theFollowingSchemasExist(doc *godog.DocString) error {
	defs, err := loader.Parse(strings.NewReader(doc.Content))
	if err != nil {
		return err
	}
	if err := loader.Validate(defs); err != nil {
		return err
	}

	token, err := issueToken(s.tc, "setup")
	if err != nil {
		return err
	}
	for i := range defs {
		payload, err := json.Marshal(defs[i])
		if err != nil {
			return err
		}
		body, status, err := s.request("POST", "/schemas", payload, token)
		if err != nil {
			return err
		}
		if status != http.StatusCreated {
			return fmt.Errorf("creating schema %s returned %d: %s", defs[i].Name, status, body)
		}
	}
	return nil
}

// Request steps

func (s *StepsContext) request(method, path string, body []byte, token string) ([]byte, int, error) {
	req, err := http.NewRequest(method, s.tc.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.tc.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	s.response = resp
	s.responseBody = respBody
	return respBody, resp.StatusCode, nil
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	_, _, err := s.request(method, path, nil, s.authToken)
	return err
}

func (s *StepsContext) iSendARequestWithBody(method, path string, doc *godog.DocString) error {
	_, _, err := s.request(method, path, []byte(doc.Content), s.authToken)
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response == nil {
		return fmt.Errorf("no request has been sent")
	}
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldMatchJSON(doc *godog.DocString) error {
	var expected, actual any
	if err := json.Unmarshal([]byte(doc.Content), &expected); err != nil {
		return fmt.Errorf("invalid expected JSON: %w", err)
	}
	if err := json.Unmarshal(s.responseBody, &actual); err != nil {
		return fmt.Errorf("response is not JSON: %w: %s", err, string(s.responseBody))
	}

	expectedJSON, _ := json.Marshal(expected)
	actualJSON, _ := json.Marshal(actual)
	if !bytes.Equal(expectedJSON, actualJSON) {
		return fmt.Errorf("expected %s, got %s", expectedJSON, actualJSON)
	}
	return nil
}

func (s *StepsContext) theResponseFieldShouldBe(path, expected string) error {
	var doc any
	if err := json.Unmarshal(s.responseBody, &doc); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	value, err := lookup(doc, path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

// lookup follows a dotted path of object keys and list indexes, e.g. "0.values.id"
func lookup(doc any, path string) (any, error) {
	current := doc
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("%s: key %q not found", path, part)
			}
			current = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("%s: index %q out of range", path, part)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("%s: cannot descend into %T at %q", path, current, part)
		}
	}
	return current, nil
}

func (s *StepsContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(s.responseBody), text) {
		return fmt.Errorf("expected response to contain %q, got: %s", text, string(s.responseBody))
	}
	return nil
}

// Database steps

func (s *StepsContext) schemaShouldHaveFieldsInTheDatabase(name string, expected int) error {
	var count int64
	err := s.tc.DB.Model(&model.FieldSchema{}).
		Joins("JOIN data_schemas ON data_schemas.id = field_schemas.data_schema_id").
		Where("data_schemas.name = ?", name).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d fields for %s, found %d", expected, name, count)
	}
	return nil
}

func (s *StepsContext) schemaShouldNotExistInTheDatabase(name string) error {
	var count int64
	if err := s.tc.DB.Model(&model.DataSchema{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count != 0 {
		return fmt.Errorf("schema %s still exists", name)
	}
	return nil
}

func (s *StepsContext) anAuditMessageShouldBeRecorded(msgid, name string) error {
	var messages []string
	err := s.tc.DB.Table("audit_messages").
		Where("msgid = ? AND sdata -> ? ->> 'name' = ?", msgid, audit.SDIDSchema, name).
		Pluck("message", &messages).Error
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("no %s audit message for schema %s", msgid, name)
	}
	return nil
}
