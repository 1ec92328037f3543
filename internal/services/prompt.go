package services

import (
	"fmt"

	"alfredoptarigan/career-copilot/internal/config"
	"alfredoptarigan/career-copilot/internal/models"
)

const (
	DefaultResumeCharLimit         = 3500
	DefaultJobDescriptionCharLimit = 2000
)

// PromptBuilder turns a resume and a job description into chat messages. Inputs longer than
// the limits are cut, never rejected.
type PromptBuilder struct {
	ResumeCharLimit         int
	JobDescriptionCharLimit int
}

func NewPromptBuilder(cfg config.PromptConfig) *PromptBuilder {
	pb := &PromptBuilder{
		ResumeCharLimit:         cfg.ResumeCharLimit,
		JobDescriptionCharLimit: cfg.JobDescriptionCharLimit,
	}
	if pb.ResumeCharLimit <= 0 {
		pb.ResumeCharLimit = DefaultResumeCharLimit
	}
	if pb.JobDescriptionCharLimit <= 0 {
		pb.JobDescriptionCharLimit = DefaultJobDescriptionCharLimit
	}
	return pb
}

const resumeSystemPrompt = `You are an expert resume writer and career coach. Your task is to tailor resumes to specific job postings while maintaining authenticity and accuracy.

Guidelines:
- Optimize for ATS (Applicant Tracking System) compatibility
- Use keywords from the job description naturally
- Enhance bullet points to highlight relevant experience
- Maintain the original structure and truthfulness
- Focus on quantifiable achievements when possible
- Match the tone and language style of the job posting`

const coverLetterSystemPrompt = `You are an expert cover letter writer. Create compelling, personalized cover letters that connect the candidate's experience to the specific job requirements.

Guidelines:
- Keep it concise (3-4 paragraphs)
- Extract company name and position title from job description
- Highlight 2-3 key qualifications that match the role
- Show enthusiasm and cultural fit
- Use a professional yet engaging tone
- Include a strong opening and clear call to action`

const interviewSystemPrompt = `You are an expert interview coach. Generate realistic interview questions based on the job posting and provide personalized answers based on the candidate's background.

Guidelines:
- Create 5-6 diverse questions (behavioral, technical, situational)
- Include common questions and role-specific ones
- Provide STAR method answers when appropriate
- Keep answers authentic to the candidate's experience
- Include questions about company culture and the specific role
- Format as JSON with question and answer fields`

// BuildResumePrompt creates the tailored-resume prompt
func (pb *PromptBuilder) BuildResumePrompt(resumeText, jobDescription string) []models.PromptMessage {
	resumeText, jobDescription = pb.limit(resumeText, jobDescription)

	return pair(resumeSystemPrompt, fmt.Sprintf(`Please tailor this resume for the following job posting:

JOB POSTING:
%s

ORIGINAL RESUME:
%s

Please provide an optimized version that better matches the job requirements while keeping all information truthful and accurate.`,
		jobDescription, resumeText))
}

// BuildCoverLetterPrompt creates the cover letter prompt
func (pb *PromptBuilder) BuildCoverLetterPrompt(resumeText, jobDescription string) []models.PromptMessage {
	resumeText, jobDescription = pb.limit(resumeText, jobDescription)

	return pair(coverLetterSystemPrompt, fmt.Sprintf(`Create a cover letter for this job application:

JOB POSTING:
%s

CANDIDATE RESUME:
%s

Please write a compelling cover letter that connects the candidate's background to this specific opportunity.`,
		jobDescription, resumeText))
}

// BuildInterviewQuestionsPrompt asks for a JSON array that ParseInterviewQuestionsResult understands.
func (pb *PromptBuilder) BuildInterviewQuestionsPrompt(resumeText, jobDescription string) []models.PromptMessage {
	resumeText, jobDescription = pb.limit(resumeText, jobDescription)

	return pair(interviewSystemPrompt, fmt.Sprintf(`Generate interview questions and personalized answers for this scenario:

JOB POSTING:
%s

CANDIDATE RESUME:
%s

Please return a JSON array of objects with "question" and "answer" fields.`,
		jobDescription, resumeText))
}

func (pb *PromptBuilder) limit(resumeText, jobDescription string) (string, string) {
	return truncateRunes(resumeText, pb.ResumeCharLimit), truncateRunes(jobDescription, pb.JobDescriptionCharLimit)
}

func pair(system, user string) []models.PromptMessage {
	return []models.PromptMessage{
		{Role: models.RoleSystem, Content: system},
		{Role: models.RoleUser, Content: user},
	}
}

// truncateRunes keeps at most limit runes of s. A non-positive limit disables truncation.
func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
