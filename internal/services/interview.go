package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"alfredoptarigan/career-copilot/internal/models"
)

var fallbackInterviewQuestions = []models.InterviewQA{
	{
		Question: "Tell me about yourself and your relevant experience.",
		Answer:   "I'm a passionate software engineer with 5+ years of experience building scalable web applications. I've worked with modern technologies like React, TypeScript, and Python, and I'm particularly skilled at collaborating with cross-functional teams to deliver high-quality products that meet both technical and business requirements.",
	},
	{
		Question: "Why are you interested in this position and our company?",
		Answer:   "I'm excited about this opportunity because it combines my technical expertise with my passion for innovation. Your company's commitment to cutting-edge technology and collaborative culture aligns perfectly with my career goals. I'm particularly interested in how I can contribute to your team's mission of delivering exceptional user experiences.",
	},
}

var errNoInterviewQuestions = errors.New("interview response contained no questions")

// InterviewParseResult reports whether Questions came from the model or from the fallback.
// Err is the parse failure when FallbackUsed is set.
type InterviewParseResult struct {
	Questions    []models.InterviewQA
	FallbackUsed bool
	Err          error
}

// FallbackInterviewQuestions returns a copy of the generic questions used when parsing fails.
func FallbackInterviewQuestions() []models.InterviewQA {
	out := make([]models.InterviewQA, len(fallbackInterviewQuestions))
	copy(out, fallbackInterviewQuestions)
	return out
}

// ParseInterviewQuestions never fails: unparseable input yields the fallback questions.
func ParseInterviewQuestions(raw string) []models.InterviewQA {
	return ParseInterviewQuestionsResult(raw).Questions
}

func ParseInterviewQuestionsResult(raw string) InterviewParseResult {
	questions, err := parseInterviewJSON(raw)
	if err != nil {
		return InterviewParseResult{
			Questions:    FallbackInterviewQuestions(),
			FallbackUsed: true,
			Err:          err,
		}
	}
	return InterviewParseResult{Questions: questions}
}

func parseInterviewJSON(raw string) ([]models.InterviewQA, error) {
	var items []models.InterviewQA
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse interview questions: %w", err)
	}
	if len(items) == 0 {
		return nil, errNoInterviewQuestions
	}

	for i := range items {
		items[i].Question = strings.TrimSpace(items[i].Question)
		items[i].Answer = strings.TrimSpace(items[i].Answer)
		if items[i].Question == "" || items[i].Answer == "" {
			return nil, fmt.Errorf("interview item %d is missing a question or an answer", i)
		}
	}
	return items, nil
}

// extractJSONArray strips markdown fences and any prose around the outermost array.
func extractJSONArray(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}
