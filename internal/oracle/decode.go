package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// decodeResponse parses the model's JSON ruling, tolerating code fences and
// prose wrapped around the object.
func decodeResponse(content string) (*Response, error) {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return nil, errors.New("empty payload")
	}
	if start := strings.Index(trimmed, "{"); start > 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var resp Response
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}

	resp.Decision = Verdict(strings.ToUpper(strings.TrimSpace(string(resp.Decision))))
	switch resp.Decision {
	case VerdictCorrect, VerdictWrong, VerdictUncertain:
	default:
		return nil, fmt.Errorf("unknown decision %q", resp.Decision)
	}
	resp.Confidence = Tier(strings.ToUpper(strings.TrimSpace(string(resp.Confidence))))
	switch resp.Confidence {
	case TierHigh, TierMedium, TierLow:
	case "":
		resp.Confidence = TierLow
	default:
		return nil, fmt.Errorf("unknown confidence %q", resp.Confidence)
	}
	resp.Reasoning = strings.TrimSpace(resp.Reasoning)
	return &resp, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
