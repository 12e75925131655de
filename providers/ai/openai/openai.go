package openai

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unillm/unillm/core/config"
	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/observability"
)

const providerName = "openai"

// Metric names emitted by the adapter.
const (
	metricRequests        = "llm.requests"
	metricRequestDuration = "llm.request.duration_ms"
	metricStreamEvents    = "llm.stream.events"
)

// OpenAIProvider implements ai.Provider and ai.StreamProvider against both
// OpenAI wire dialects. The model identifier decides which dialect a request
// uses; callers never pick an endpoint themselves.
type OpenAIProvider struct {
	apiKey       string
	baseURL      string
	organization string
	apiVersion   string

	httpClient *http.Client
	transport  ai.Transport
	observer   observability.Provider
}

// Compile-time interface checks.
var (
	_ ai.Provider       = (*OpenAIProvider)(nil)
	_ ai.StreamProvider = (*OpenAIProvider)(nil)
)

// New creates a provider with settings resolved from the environment
// (OPENAI_API_KEY, OPENAI_BASE_URL, ...) and name-derived defaults.
func New() *OpenAIProvider {
	return NewFromConfig(config.Provider{})
}

// NewFromConfig creates a provider from explicit settings, resolving unset
// fields through the standard precedence chain.
func NewFromConfig(explicit config.Provider) *OpenAIProvider {
	resolved := config.Resolve(providerName, explicit, nil)
	return &OpenAIProvider{
		apiKey:       resolved.APIKey,
		baseURL:      strings.TrimSuffix(resolved.BaseURL, "/"),
		organization: resolved.Organization,
		apiVersion:   resolved.APIVersion,
		observer:     observability.Noop(),
	}
}

// WithAPIKey sets the API key used for authenticating requests.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the base URL for API requests.
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimSuffix(baseURL, "/")
	return p
}

// WithHttpClient sets the HTTP client used by the default transport.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.httpClient = httpClient
	return p
}

// WithTransport substitutes the transport entirely, bypassing the default
// HTTP one. Primarily for tests and custom proxying.
func (p *OpenAIProvider) WithTransport(transport ai.Transport) *OpenAIProvider {
	p.transport = transport
	return p
}

// WithObservability injects tracing, metrics and logging. Without it the
// adapter stays silent.
func (p *OpenAIProvider) WithObservability(observer observability.Provider) *OpenAIProvider {
	if observer != nil {
		p.observer = observer
	}
	return p
}

// IsStopMessage reports whether the response is a terminal completion with no
// tool calls pending.
func (p *OpenAIProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return false
	}
	return len(message.ToolCalls) == 0 && message.FinishReason != ai.FinishToolCalls
}

// SendMessage sends a generation request to whichever endpoint the model
// family requires and returns the canonical response.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	observer := p.observerFor(ctx)
	ctx, span := observer.StartSpan(ctx, "openai.send_message",
		observability.String(observability.AttrLLMProvider, providerName),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
	)
	defer span.End()

	wire, family, err := p.prepare(ctx, request, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, err.Error())
		return nil, err
	}
	span.SetAttributes(observability.String(observability.AttrLLMEndpoint, wire.URL))

	start := time.Now()
	status, body, err := p.wireTransport().Send(ctx, wire)
	p.recordRequest(ctx, observer, request.Model, family, time.Since(start))
	if err != nil {
		classified := ai.ClassifyTransportError(ctx, err)
		span.RecordError(classified)
		span.SetStatus(observability.StatusError, classified.Error())
		return nil, classified
	}

	response, err := decodeSyncResponse(status, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, err.Error())
		return nil, err
	}

	span.AddEvent(observability.EventLLMRequestEnd,
		observability.String(observability.AttrLLMFinishReason, string(response.FinishReason)),
	)
	return response, nil
}

// StreamMessage sends a generation request and returns a stream of canonical
// deltas. The caller's context is polled at every line-read boundary: once
// cancellation is observed, no further deltas are yielded and the stream
// terminates with the cancellation classification. Accumulated partial state
// is discarded, not flushed.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	observer := p.observerFor(ctx)
	ctx, span := observer.StartSpan(ctx, "openai.stream_message",
		observability.String(observability.AttrLLMProvider, providerName),
		observability.String(observability.AttrLLMModel, request.Model),
	)

	wire, family, err := p.prepare(ctx, request, true)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}

	start := time.Now()
	status, body, err := p.wireTransport().OpenStream(ctx, wire)
	p.recordRequest(ctx, observer, request.Model, family, time.Since(start))
	if err != nil {
		classified := ai.ClassifyTransportError(ctx, err)
		span.RecordError(classified)
		span.End()
		return nil, classified
	}
	if status < 200 || status >= 300 {
		classified := ai.ClassifyHTTPStatus(providerName, status, utils.ReadErrorBody(body))
		span.RecordError(classified)
		span.End()
		return nil, classified
	}

	span.AddEvent(observability.EventLLMStreamStart)

	var normalizer streamNormalizer
	if family.dialect == dialectResponses {
		normalizer = newResponsesNormalizer()
	} else {
		normalizer = newChatNormalizer()
	}

	return ai.NewChatStream(p.streamIterator(ctx, span, observer, request.Model, body, normalizer)), nil
}

func (p *OpenAIProvider) streamIterator(
	ctx context.Context,
	span observability.Span,
	observer observability.Provider,
	model string,
	body io.ReadCloser,
	normalizer streamNormalizer,
) func(yield func(ai.StreamEvent, error) bool) {
	return func(yield func(ai.StreamEvent, error) bool) {
		defer span.End()
		defer utils.CloseWithLog(body)

		scanner := utils.NewSSEScanner(body)
		events := observer.Counter(metricStreamEvents)

		for {
			if ctx.Err() != nil {
				classified := &ai.CancelledError{Cause: ctx.Err()}
				span.AddEvent(observability.EventLLMStreamAborted)
				yield(ai.StreamEvent{Type: ai.StreamEventError, Error: classified.Error()}, classified)
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				for _, event := range normalizer.finish() {
					if !yield(event, nil) {
						return
					}
				}
				span.AddEvent(observability.EventLLMStreamEnd)
				return
			}
			if err != nil {
				classified := ai.ClassifyTransportError(ctx, err)
				span.RecordError(classified)
				yield(ai.StreamEvent{Type: ai.StreamEventError, Error: classified.Error()}, classified)
				return
			}

			for _, event := range normalizer.feed(payload) {
				events.Add(ctx, 1,
					observability.String(observability.AttrLLMProvider, providerName),
					observability.String(observability.AttrLLMModel, model),
				)
				if event.Type == ai.StreamEventError {
					// An in-band failure event is terminal: it rides the
					// iterator's error value like a transport failure would.
					classified := &ai.APIError{Message: event.Error}
					span.RecordError(classified)
					yield(event, classified)
					return
				}
				if !yield(event, nil) {
					return
				}
			}
		}
	}
}

// prepare validates credentials and cancellation, classifies the model and
// encodes the wire request.
func (p *OpenAIProvider) prepare(ctx context.Context, request ai.ChatRequest, stream bool) (ai.WireRequest, modelFamily, error) {
	family := classifyModel(request.Model)

	if p.apiKey == "" {
		return ai.WireRequest{}, family, &ai.AuthenticationError{
			Provider: providerName,
			Message:  "API key is not set",
		}
	}
	if ctx.Err() != nil {
		return ai.WireRequest{}, family, &ai.CancelledError{Cause: ctx.Err()}
	}

	for _, message := range request.Messages {
		if err := message.Validate(); err != nil {
			return ai.WireRequest{}, family, &ai.InvalidConfigurationError{Message: err.Error()}
		}
	}
	for _, tool := range request.Tools {
		if err := tool.Validate(); err != nil {
			return ai.WireRequest{}, family, &ai.InvalidConfigurationError{Message: err.Error()}
		}
	}

	var body []byte
	var path string
	var err error
	if family.dialect == dialectResponses {
		body, path, err = encodeResponsesRequest(request, family, stream)
	} else {
		body, path, err = encodeChatCompletionsRequest(request, family, stream)
	}
	if err != nil {
		return ai.WireRequest{}, family, err
	}

	return ai.WireRequest{
		Method:  http.MethodPost,
		URL:     p.baseURL + path,
		Headers: p.headers(),
		Body:    body,
	}, family, nil
}

func (p *OpenAIProvider) headers() http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+p.apiKey)
	if p.organization != "" {
		headers.Set("OpenAI-Organization", p.organization)
	}
	if p.apiVersion != "" {
		headers.Set("OpenAI-Version", p.apiVersion)
	}
	return headers
}

func (p *OpenAIProvider) wireTransport() ai.Transport {
	if p.transport != nil {
		return p.transport
	}
	return utils.NewHTTPTransport(p.httpClient)
}

// observerFor prefers a request-scoped observer from the context over the
// provider-level one.
func (p *OpenAIProvider) observerFor(ctx context.Context) observability.Provider {
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		return observer
	}
	return p.observer
}

func (p *OpenAIProvider) recordRequest(
	ctx context.Context,
	observer observability.Provider,
	model string,
	family modelFamily,
	elapsed time.Duration,
) {
	endpoint := chatCompletionsEndpoint
	if family.dialect == dialectResponses {
		endpoint = responsesEndpoint
	}
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMProvider, providerName),
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMEndpoint, endpoint),
	}
	observer.Counter(metricRequests).Add(ctx, 1, attrs...)
	observer.Histogram(metricRequestDuration).Record(ctx, float64(elapsed.Milliseconds()), attrs...)
}
