package negotiation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

type fakeCaller struct {
	resp    string
	err     error
	prompts []string
}

func (f *fakeCaller) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.resp, f.err
}

type outcomeRecorder struct{ outcomes []string }

func (r *outcomeRecorder) IncStrategyOutcome(o string) { r.outcomes = append(r.outcomes, o) }

func testInput() Input {
	return Input{
		Vehicle:  civic,
		Safety:   vehicle.SafetyData{OverallRating: 4, Recalls: []vehicle.Recall{{CampaignNumber: "19V182000"}}},
		Analysis: overpriced(),
		Mileage:  60000,
	}
}

func TestStrategistGenerated(t *testing.T) {
	caller := &fakeCaller{resp: "```json\n" + validStrategyJSON + "\n```"}
	rec := &outcomeRecorder{}
	s := NewStrategist(caller, time.Second, rec).Strategy(context.Background(), testInput())

	if s.Source != vehicle.StrategyGenerated || s.TargetPrice != 17800 {
		t.Fatalf("unexpected strategy: %+v", s)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != string(OutcomeGenerated) {
		t.Fatalf("outcomes=%v", rec.outcomes)
	}
	if len(caller.prompts) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(caller.prompts))
	}
	p := caller.prompts[0]
	for _, want := range []string{"2019 Honda Civic EX", "Mileage: 60,000 miles", "Safety Rating: 4/5", "1 recalls found", "Current listing price: $22,000", "Price difference: +10.0%", "Mileage: Higher than average", "Respond ONLY with the JSON"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestStrategistFallsBackOnParseFailure(t *testing.T) {
	rec := &outcomeRecorder{}
	st := NewStrategist(&fakeCaller{resp: "I cannot help with that."}, 0, rec)

	res := st.Attempt(context.Background(), testInput())
	if res.Outcome != OutcomeParseFailure || res.Err == nil {
		t.Fatalf("result=%+v", res)
	}
	s := st.Strategy(context.Background(), testInput())
	if s.Source != vehicle.StrategyRuleBased || s.TargetPrice != 18000 || s.StartingOffer != 16200 {
		t.Fatalf("expected rule-based fallback, got %+v", s)
	}
	if rec.outcomes[0] != string(OutcomeParseFailure) {
		t.Fatalf("outcomes=%v", rec.outcomes)
	}
}

func TestStrategistFallsBackOnInvalidStrategy(t *testing.T) {
	bad := strings.Replace(validStrategyJSON, `16000`, `-1`, 1)
	res := NewStrategist(&fakeCaller{resp: bad}, 0, nil).Attempt(context.Background(), testInput())
	if res.Outcome != OutcomeParseFailure {
		t.Fatalf("outcome=%s", res.Outcome)
	}
}

func TestStrategistFallsBackOnServiceFailure(t *testing.T) {
	rec := &outcomeRecorder{}
	st := NewStrategist(&fakeCaller{err: errors.New("status code: 529 overloaded")}, 0, rec)
	s := st.Strategy(context.Background(), testInput())
	if s.Source != vehicle.StrategyRuleBased {
		t.Fatalf("source=%s", s.Source)
	}
	if rec.outcomes[0] != string(OutcomeServiceFailure) {
		t.Fatalf("outcomes=%v", rec.outcomes)
	}
}

func TestStrategistDisabled(t *testing.T) {
	rec := &outcomeRecorder{}
	st := NewStrategist(nil, 0, rec)
	if res := st.Attempt(context.Background(), testInput()); res.Outcome != OutcomeDisabled || !errors.Is(res.Err, ErrDisabled) {
		t.Fatalf("result=%+v", res)
	}
	if s := st.Strategy(context.Background(), testInput()); s.Source != vehicle.StrategyRuleBased {
		t.Fatalf("source=%s", s.Source)
	}
	if rec.outcomes[0] != string(OutcomeDisabled) {
		t.Fatalf("outcomes=%v", rec.outcomes)
	}
}

type mockMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (m *mockMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.params = params
	return m.resp, m.err
}

func TestAnthropicCallerJoinsTextBlocks(t *testing.T) {
	mock := &mockMessager{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: `{"summary":`},
		{Type: "thinking"},
		{Type: "text", Text: `"x"}`},
	}}}
	orig := newAnthropicClient
	newAnthropicClient = func(string) AnthropicMessager { return mock }
	t.Cleanup(func() { newAnthropicClient = orig })

	caller, err := NewAnthropicCaller("key", "claude-test", 0)
	if err != nil {
		t.Fatalf("new caller: %v", err)
	}
	got, err := caller.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != `{"summary":"x"}` {
		t.Fatalf("got %q", got)
	}
	if string(mock.params.Model) != "claude-test" || mock.params.System[0].Text != systemPrompt {
		t.Fatalf("unexpected params: model=%s", mock.params.Model)
	}
}

func TestNewAnthropicCallerRequiresKey(t *testing.T) {
	if _, err := NewAnthropicCaller("  ", "m", 0); err == nil {
		t.Fatal("expected error without api key")
	}
}

type fakeChat struct {
	input []*schema.Message
	resp  *schema.Message
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.resp, nil
}

func TestOpenAICallerSendsSystemAndUser(t *testing.T) {
	chat := &fakeChat{resp: &schema.Message{Role: schema.Assistant, Content: "{}"}}
	caller := &OpenAICaller{chat: chat}
	got, err := caller.Generate(context.Background(), "prompt")
	if err != nil || got != "{}" {
		t.Fatalf("got %q %v", got, err)
	}
	if len(chat.input) != 2 || chat.input[0].Role != schema.System || chat.input[1].Content != "prompt" {
		t.Fatalf("unexpected messages: %+v", chat.input)
	}
}

func TestLimiterHonorsContext(t *testing.T) {
	caller := &OpenAICaller{chat: &fakeChat{}, limiter: perMinute(1)}
	caller.limiter.Allow()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := caller.Generate(ctx, "p"); err == nil {
		t.Fatal("expected limiter wait to fail on canceled context")
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestClassifyTransportError(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{assertErr("429 Too Many Requests"), "rate_limited"},
		{assertErr("status code: 400 bad request"), "client"},
		{assertErr("failed after 5 retries while waiting 4 seconds"), "server"},
	} {
		if got := classifyTransportError(tc.err); got != tc.want {
			t.Fatalf("%v: got %s want %s", tc.err, got, tc.want)
		}
	}
}
