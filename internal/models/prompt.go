package models

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PromptMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type InterviewQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
