package question

import (
	"fmt"
	"strings"
)

// Issue captures a validation problem in a question file.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("question file validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Normalize trims text fields and validates every question. Questions without
// an answer key are accepted and returned as warnings; evaluation reports them
// as configuration errors.
func Normalize(questions []Question) ([]Question, []Issue, error) {
	errs := &issueCollector{}
	warns := &issueCollector{}

	out := make([]Question, 0, len(questions))
	seen := make(map[int]struct{}, len(questions))
	for i, q := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)

		if q.ID <= 0 {
			errs.add(prefix+".id", "must be a positive integer")
		} else if _, dup := seen[q.ID]; dup {
			errs.add(prefix+".id", fmt.Sprintf("duplicate id %d", q.ID))
		} else {
			seen[q.ID] = struct{}{}
		}

		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			errs.add(prefix+".text", "is required")
		}
		q.Category = strings.TrimSpace(q.Category)
		q.Explanation = strings.TrimSpace(q.Explanation)

		switch strings.TrimSpace(string(q.Type)) {
		case "", string(TypeStandard):
			q.Type = TypeStandard
			validateStandard(errs, prefix, &q)
		case string(TypeHotspotYesNo):
			q.Type = TypeHotspotYesNo
			validateHotspot(errs, prefix, &q)
		default:
			errs.add(prefix+".type", fmt.Sprintf("unsupported type %q", q.Type))
		}

		if q.Type == TypeStandard && q.Answer == nil && len(q.Answers) == 0 {
			warns.add(prefix, fmt.Sprintf("question %d has no answer key", q.ID))
		}
		out = append(out, q)
	}

	if err := errs.result(); err != nil {
		return nil, nil, err
	}
	return out, warns.issues, nil
}

func validateStandard(c *issueCollector, prefix string, q *Question) {
	if len(q.Statements) > 0 {
		c.add(prefix+".statements", "only allowed for hotspot_yes_no questions")
	}
	if len(q.Options) == 0 {
		c.add(prefix+".options", "must include at least one entry")
	}
	q.Options = append([]string(nil), q.Options...)
	q.Answers = append([]int(nil), q.Answers...)
	for i, opt := range q.Options {
		q.Options[i] = strings.TrimSpace(opt)
		if q.Options[i] == "" {
			c.add(fmt.Sprintf("%s.options[%d]", prefix, i), "is required")
		}
	}

	if q.IsMulti {
		if q.Answer != nil {
			c.add(prefix+".answer", "is_multi questions must use answers")
		}
		seen := map[int]struct{}{}
		for i, a := range q.Answers {
			field := fmt.Sprintf("%s.answers[%d]", prefix, i)
			if a < 0 || a >= len(q.Options) {
				c.add(field, fmt.Sprintf("index %d out of range", a))
			}
			if _, dup := seen[a]; dup {
				c.add(field, fmt.Sprintf("duplicate index %d", a))
			}
			seen[a] = struct{}{}
		}
		return
	}

	if len(q.Answers) > 0 {
		c.add(prefix+".answers", "requires is_multi")
	}
	if q.Answer != nil && (*q.Answer < 0 || *q.Answer >= len(q.Options)) {
		c.add(prefix+".answer", fmt.Sprintf("index %d out of range", *q.Answer))
	}
}

func validateHotspot(c *issueCollector, prefix string, q *Question) {
	if len(q.Options) > 0 {
		c.add(prefix+".options", "not allowed for hotspot_yes_no questions")
	}
	if q.Answer != nil || len(q.Answers) > 0 {
		c.add(prefix+".answer", "hotspot_yes_no questions take answers from statements")
	}
	if q.IsMulti {
		c.add(prefix+".is_multi", "not allowed for hotspot_yes_no questions")
	}
	if len(q.Statements) == 0 {
		c.add(prefix+".statements", "must include at least one entry")
	}
	q.Statements = append([]Statement(nil), q.Statements...)
	for i, st := range q.Statements {
		q.Statements[i].Text = strings.TrimSpace(st.Text)
		if q.Statements[i].Text == "" {
			c.add(fmt.Sprintf("%s.statements[%d].text", prefix, i), "is required")
		}
	}
}
