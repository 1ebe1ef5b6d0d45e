package features

import "fmt"

const (
	questionSystemPrompt = "You are a helpful AI assistant that answers questions based on the provided context. Always base your answers on the given context and cite relevant parts when possible."
	summarySystemPrompt  = "You are an expert at creating concise, informative summaries. Focus on the main ideas, key points, and important details."
	quizSystemPrompt     = "You are an expert quiz generator. Create multiple-choice questions that test understanding of the provided content. Always respond with valid JSON format."
)

func questionPrompt(question string) string {
	return fmt.Sprintf(`Based on the following context, please answer the question. If the answer is not in the context, say so clearly.

Question: %s

Please provide a comprehensive answer based on the context provided.`, question)
}

func summaryPrompt(maxLength int) string {
	return fmt.Sprintf(`Please create a comprehensive summary of the provided text. The summary should be approximately %d words and capture the main ideas, key points, and important details.

Summary:`, maxLength)
}

func quizPrompt(numQuestions int, difficulty string) string {
	return fmt.Sprintf(`Based on the provided text, create a multiple-choice quiz with %d questions at %s difficulty level.

Please generate exactly %d multiple-choice questions. For each question:
1. Create a clear, specific question
2. Provide 4 answer options (A, B, C, D)
3. Indicate the correct answer by its index (0, 1, 2, or 3)

Respond with a JSON format like this:
{
    "questions": [
        {
            "question": "What is the main topic discussed?",
            "options": ["Option A", "Option B", "Option C", "Option D"],
            "correct_answer": 0
        }
    ]
}`, numQuestions, difficulty, numQuestions)
}
