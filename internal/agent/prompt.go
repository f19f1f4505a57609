package agent

import (
	"fmt"
	"strings"
)

const systemPrompt = `You control a web browser to complete the user's task.

On every turn you receive the current page state. Reply with exactly one JSON object and nothing else:

{
  "evaluation_previous_goal": "did the previous action succeed and why",
  "next_goal": "what you want to achieve with the next action",
  "action": {"name": "<action>", "params": {...}}
}

Actions:
  go_to_url        params: {"url": "https://..."}
  click            params: {"selector": "<css selector>"}
  input_text       params: {"selector": "<css selector>", "text": "..."}
  scroll           params: {"amount": <pixels, negative scrolls up>}
  go_back          params: {}
  extract_content  params: {}
  done             params: {"text": "<final answer for the user>"}

Call done as soon as the task is complete. The text of done is the final result.`

// maxPageText ограничивает текст страницы в одном сообщении.
const maxPageText = 4000

// pageState — наблюдение перед шагом.
type pageState struct {
	Step   int
	URL    string
	Title  string
	Text   string
	Result string
}

func (s pageState) message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "STEP: %d\n", s.Step)
	if s.Result != "" {
		fmt.Fprintf(&b, "PREVIOUS ACTION RESULT: %s\n", s.Result)
	}
	fmt.Fprintf(&b, "URL: %s\n", s.URL)
	fmt.Fprintf(&b, "TITLE: %s\n", s.Title)

	text := s.Text
	if len(text) > maxPageText {
		text = text[:maxPageText] + "..."
	}
	if text != "" {
		b.WriteString("PAGE TEXT:\n")
		b.WriteString(text)
	}
	return b.String()
}
