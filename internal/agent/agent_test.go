package agent

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Surfer/internal/browser/browsertest"
	"github.com/shaiso/Surfer/internal/llm"
	"github.com/shaiso/Surfer/internal/llm/llmtest"
)

const exampleHTML = `<html><head><title>Example Domain</title></head><body><div><h1>Example Domain</h1>
<p>This domain is for use in illustrative examples in documents. You may use this domain in literature without prior coordination or asking for permission.</p>
<p><a href="https://www.iana.org/domains/example">More information...</a></p></div></body></html>`

func examplePages() map[string]browsertest.Page {
	return map[string]browsertest.Page{
		"https://example.com": {Title: "Example Domain", HTML: exampleHTML},
	}
}

// --- ParseDecision ---

func TestParseDecision_Plain(t *testing.T) {
	d, err := ParseDecision(`{"evaluation_previous_goal":"Start","next_goal":"Open site","action":{"name":"go_to_url","params":{"url":"https://example.com"}}}`)
	require.NoError(t, err)
	assert.Equal(t, "Start", d.EvaluationPreviousGoal)
	assert.Equal(t, "Open site", d.NextGoal)
	assert.Equal(t, ActionGoToURL, d.Action.Name)
	assert.Equal(t, "https://example.com", d.Action.Params.URL)
}

func TestParseDecision_Fenced(t *testing.T) {
	raw := "Sure, here it is:\n```json\n{\"next_goal\":\"finish\",\"action\":{\"name\":\"DONE\",\"params\":{\"text\":\"Example Domain\"}}}\n```"
	d, err := ParseDecision(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionDone, d.Action.Name)
	assert.Equal(t, "Example Domain", d.Action.Params.Text)
	assert.Empty(t, d.EvaluationPreviousGoal)
}

func TestParseDecision_Repaired(t *testing.T) {
	d, err := ParseDecision(`{"next_goal": "scroll", "action": {"name": "scroll", "params": {"amount": 300,},},}`)
	require.NoError(t, err)
	assert.Equal(t, ActionScroll, d.Action.Name)
	assert.Equal(t, 300, d.Action.Params.Amount)
}

func TestParseDecision_Errors(t *testing.T) {
	_, err := ParseDecision("I think we should open the page")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	_, err = ParseDecision(`{"action":{"name":"hover"}}`)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

// --- Run ---

func TestRun_NavigateExtractDone(t *testing.T) {
	session := browsertest.NewSession(examplePages())
	chat := &llmtest.Scripted{Replies: []string{
		`{"evaluation_previous_goal":"Start","next_goal":"Open example.com","action":{"name":"go_to_url","params":{"url":"https://example.com"}}}`,
		`{"evaluation_previous_goal":"Success","next_goal":"Read the page","action":{"name":"extract_content","params":{}}}`,
		`{"evaluation_previous_goal":"Success","next_goal":"Report","action":{"name":"done","params":{"text":"Example Domain"}}}`,
	}}
	dir := t.TempDir()

	h, err := New(chat, session, Config{ScratchDir: dir}).Run(context.Background(), "Open example.com and extract the title", nil)
	require.NoError(t, err)

	assert.True(t, h.IsDone)
	assert.False(t, h.HasErrors())
	assert.Equal(t, "Example Domain", h.FinalResult)
	require.Len(t, h.Actions, 3)
	assert.Equal(t, []string{ActionGoToURL, ActionExtractContent, ActionDone},
		[]string{h.Actions[0].Name, h.Actions[1].Name, h.Actions[2].Name})
	assert.Equal(t, "Start", h.Actions[0].Thought)
	assert.Equal(t, []string{"https://example.com"}, h.URLs)
	require.Len(t, h.ExtractedContent, 1)
	assert.Contains(t, h.ExtractedContent[0], "Example Domain")

	// снимки только для реальных страниц: шаги 1 и 2
	require.Len(t, h.Screenshots, 2)
	for _, p := range h.Screenshots {
		assert.True(t, strings.HasPrefix(p, dir))
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}

func TestRun_ActionErrorsAreRecorded(t *testing.T) {
	session := browsertest.NewSession(examplePages())
	session.ClickErr = errors.New("element not visible")
	chat := &llmtest.Scripted{Replies: []string{
		`{"action":{"name":"go_to_url","params":{"url":"https://nowhere.invalid"}}}`,
		`{"action":{"name":"click","params":{"selector":"#missing"}}}`,
		`{"action":{"name":"done","params":{"text":"gave up"}}}`,
	}}

	h, err := New(chat, session, Config{}).Run(context.Background(), "task", nil)
	require.NoError(t, err)
	assert.True(t, h.IsDone)
	assert.True(t, h.HasErrors())
	assert.Len(t, h.Errors, 2)
	assert.NotEmpty(t, h.Actions[0].Error)
	assert.Equal(t, "element not visible", h.Actions[1].Error)
	assert.Empty(t, h.Screenshots)
}

func TestRun_LLMErrorAborts(t *testing.T) {
	session := browsertest.NewSession(examplePages())
	chat := &llmtest.Scripted{
		Replies: []string{`{"action":{"name":"go_to_url","params":{"url":"https://example.com"}}}`},
		Err:     errors.New("401 unauthorized"),
		FailAt:  1,
	}

	h, err := New(chat, session, Config{}).Run(context.Background(), "task", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 unauthorized")
	require.NotNil(t, h)
	assert.Len(t, h.Actions, 1)
	assert.False(t, h.IsDone)
}

func TestRun_TooManyInvalidDecisions(t *testing.T) {
	chat := &llmtest.Scripted{Replies: []string{"hmm", "not sure", "still thinking"}}

	h, err := New(chat, browsertest.NewSession(nil), Config{MaxFailures: 3}).Run(context.Background(), "task", nil)
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.Len(t, h.Errors, 3)
}

func TestRun_MaxStepsWithoutDone(t *testing.T) {
	reply := `{"action":{"name":"scroll","params":{"amount":100}}}`
	chat := &llmtest.Scripted{Replies: []string{reply, reply, reply, reply}}

	h, err := New(chat, browsertest.NewSession(nil), Config{MaxSteps: 2}).Run(context.Background(), "task", nil)
	require.NoError(t, err)
	assert.False(t, h.IsDone)
	assert.Len(t, h.Actions, 2)
	assert.Len(t, chat.Calls(), 2)
}

func TestRun_StopSignal(t *testing.T) {
	stop := NewStopSignal()
	stop.Stop()
	chat := &llmtest.Scripted{}

	h, err := New(chat, browsertest.NewSession(nil), Config{}).Run(context.Background(), "task", stop)
	assert.ErrorIs(t, err, ErrStopped)
	assert.NotNil(t, h)
	assert.Empty(t, chat.Calls())
}

func TestStopSignal_Nil(t *testing.T) {
	var s *StopSignal
	assert.False(t, s.Stopped())
}

func TestRun_PromptCarriesTaskAndState(t *testing.T) {
	session := browsertest.NewSession(examplePages())
	chat := &llmtest.Scripted{Replies: []string{
		`{"action":{"name":"go_to_url","params":{"url":"https://example.com"}}}`,
		`{"action":{"name":"done","params":{"text":"ok"}}}`,
	}}

	_, err := New(chat, session, Config{}).Run(context.Background(), "find the title", nil)
	require.NoError(t, err)

	calls := chat.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, llm.RoleSystem, calls[0][0].Role)
	assert.Equal(t, "TASK: find the title", calls[0][1].Content)

	last := calls[1][len(calls[1])-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Contains(t, last.Content, "URL: https://example.com")
	assert.Contains(t, last.Content, "PREVIOUS ACTION RESULT: navigated to https://example.com")
}

func TestWindow(t *testing.T) {
	var dialog []llm.Message
	for i := 0; i < 20; i++ {
		dialog = append(dialog, llm.User("u"), llm.Assistant("a"))
	}
	dialog = append(dialog, llm.User("last"))

	w := window(dialog)
	assert.LessOrEqual(t, len(w), historyWindow)
	assert.Equal(t, llm.RoleUser, w[0].Role)
	assert.Equal(t, "last", w[len(w)-1].Content)
}
