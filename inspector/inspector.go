package inspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/hourly-hadith/hadith-inspect/config"
)

const (
	previewLength   = 200
	rawHadithMarker = `"hadith":"`
	redactedKey     = "REDACTED"
)

// Run outcomes reported to an Observer
const (
	OutcomeOK              = "ok"
	OutcomeHTTPError       = "http_error"
	OutcomeTransportError  = "transport_error"
	OutcomeDecodeError     = "decode_error"
	OutcomeUnexpectedShape = "unexpected_shape"
)

// Observer receives a summary of every run, typically a metrics collector
type Observer interface {
	ObserveResponse(status int, size int, elapsed time.Duration)
	ObserveOutcome(outcome string)
	ObserveRecords(count int)
}

type noopObserver struct{}

func (noopObserver) ObserveResponse(int, int, time.Duration) {}
func (noopObserver) ObserveOutcome(string)                   {}
func (noopObserver) ObserveRecords(int)                      {}

// Recorder stores raw response bodies for later replay
type Recorder interface {
	SaveResponse(capturedAt time.Time, status int, body []byte) (string, error)
}

// Inspector fetches one response from the hadith API and prints what it finds in it.
type Inspector struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	hadithNumber int
	out          io.Writer
	recorder     Recorder
	observer     Observer
	now          func() time.Time
}

// New creates an inspector that writes its report to out
func New(cfg *config.Config, out io.Writer) *Inspector {
	return &Inspector{
		client:       &http.Client{Timeout: cfg.Timeout},
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		hadithNumber: cfg.HadithNumber,
		out:          out,
		observer:     noopObserver{},
		now:          time.Now,
	}
}

// SetClient replaces the HTTP client used for the request
func (i *Inspector) SetClient(client *http.Client) {
	i.client = client
}

// SetRecorder attaches a store that receives every completed response body
func (i *Inspector) SetRecorder(recorder Recorder) {
	i.recorder = recorder
}

// SetObserver attaches a collector for run outcomes
func (i *Inspector) SetObserver(observer Observer) {
	if observer == nil {
		observer = noopObserver{}
	}
	i.observer = observer
}

// RequestURL builds the full request URL including the API key.
func (i *Inspector) RequestURL() string {
	return i.buildURL(i.apiKey)
}

// RedactedURL is RequestURL with the API key replaced, safe to print.
func (i *Inspector) RedactedURL() string {
	return i.buildURL(redactedKey)
}

func (i *Inspector) buildURL(apiKey string) string {
	query := url.Values{}
	query.Set("apiKey", apiKey)
	query.Set("limit", "1")
	if i.hadithNumber > 0 {
		query.Set("hadithNumber", strconv.Itoa(i.hadithNumber))
	} else {
		query.Set("random", "1")
	}

	u, err := url.Parse(i.baseURL)
	if err != nil {
		return i.baseURL + "?" + query.Encode()
	}
	existing := u.Query()
	for key, values := range query {
		existing[key] = values
	}
	u.RawQuery = existing.Encode()
	return u.String()
}

// Run performs the request and prints the report. Every failure is reported
// on the output and never returned.
func (i *Inspector) Run(ctx context.Context) {
	i.printf("Sending request to: %s\n", i.RedactedURL())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.RequestURL(), nil)
	if err != nil {
		i.reportError(err)
		return
	}

	started := i.now()
	resp, err := i.client.Do(req)
	if err != nil {
		i.reportError(err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		i.reportError(fmt.Errorf("failed to read response body: %w", err))
		return
	}
	elapsed := i.now().Sub(started)
	log.Debugf("Received %s with %d bytes in %s", resp.Status, len(body), elapsed)
	i.observer.ObserveResponse(resp.StatusCode, len(body), elapsed)

	i.record(resp.StatusCode, body)
	i.InspectBody(resp.StatusCode, body)
}

// InspectBody prints the report for an already obtained response.
func (i *Inspector) InspectBody(status int, body []byte) {
	if status != http.StatusOK {
		i.printf("Request failed with status code: %d\n", status)
		i.observer.ObserveOutcome(OutcomeHTTPError)
		return
	}

	i.printf("Success! Status code: %d\n", status)
	i.printf("Response size: %d bytes\n", len(body))

	payload, err := decodePayload(body)
	if err != nil {
		log.Debugf("JSON decode failed: %v", err)
		i.reportRawBody(string(body))
		i.observer.ObserveOutcome(OutcomeDecodeError)
		return
	}

	envelope, ok := payload.(map[string]any)
	if !ok {
		i.printf("\nJSON structure: top level is %s, not an object\n", kindOf(payload))
		i.observer.ObserveOutcome(OutcomeUnexpectedShape)
		return
	}
	i.observer.ObserveOutcome(i.reportEnvelope(envelope))
}

func (i *Inspector) reportError(err error) {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = i.RedactedURL()
	}
	i.printf("An error occurred: %v\n", err)
	i.observer.ObserveOutcome(OutcomeTransportError)
}

func (i *Inspector) record(status int, body []byte) {
	if i.recorder == nil {
		return
	}
	name, err := i.recorder.SaveResponse(i.now(), status, body)
	if err != nil {
		log.Warnf("Failed to record response: %v", err)
		return
	}
	log.Infof("Recorded response as %s", name)
}

func (i *Inspector) reportRawBody(body string) {
	i.println("Failed to parse JSON response")
	i.println("First 200 characters of response:")
	i.println(firstChars(body, previewLength))

	i.println("\nTrying manual string search...")
	if pos := strings.Index(body, rawHadithMarker); pos >= 0 {
		i.printf("Found 'hadith' at position %d\n", charIndex(body, pos))
	} else {
		i.println("No 'hadith' field found in raw text")
	}
}

// reportEnvelope prints the envelope and returns the run outcome
func (i *Inspector) reportEnvelope(envelope map[string]any) string {
	i.println("\nJSON structure:")
	i.println(formatKeys(envelope))

	raw, ok := envelope["hadiths"]
	if !ok {
		i.println("No 'hadiths' key in response")
		i.printf("Available keys: %s\n", formatKeys(envelope))
		return OutcomeUnexpectedShape
	}

	hadiths, ok := raw.(map[string]any)
	if !ok {
		i.printf("\n'hadiths' is %s, not an object\n", kindOf(raw))
		return OutcomeUnexpectedShape
	}

	i.println("\nHadiths structure:")
	i.println(formatKeys(hadiths))

	records, ok := hadiths["data"].([]any)
	if _, present := hadiths["data"]; present && !ok {
		i.printf("'data' is %s, not an array\n", kindOf(hadiths["data"]))
	}
	if ok {
		i.observer.ObserveRecords(len(records))
		i.printf("\nNumber of hadiths fetched: %d\n", len(records))
		for idx, entry := range records {
			i.reportRecord(idx+1, entry)
		}
	}

	if len(records) == 0 {
		i.println("No hadiths found in the response")
		return OutcomeOK
	}
	i.reportFirstRecord(records[0])
	return OutcomeOK
}

func (i *Inspector) reportRecord(position int, entry any) {
	i.printf("\n--- Hadith %d ---\n", position)

	record, ok := entry.(map[string]any)
	if !ok {
		i.printf("Entry is %s, not an object\n\n", kindOf(entry))
		return
	}

	i.printf("ID: %s\n", fieldOrNA(record, "id"))
	i.printf("Number: %s\n", fieldOrNA(record, "hadithNumber"))
	i.printf("Book: %s\n", bookName(record))
	i.printf("Chapter: %s\n", chapterName(record))
	i.printf("Hadith text: %s\n", fieldOrNA(record, "hadithEnglish"))
	i.printf("Narrator: %s\n", fieldOrNA(record, "narratorEnglish", "englishNarrator"))

	text := hadithText(record)
	if strings.HasPrefix(text, `"`) {
		i.println("NOTE: Hadith starts with quotation mark")
		i.printf("First character after quote: '%s'\n", charAfterQuote(text))
	}
	if strings.Contains(text, `\u`) {
		i.println("NOTE: Hadith contains Unicode escape sequences")
	}
	if text != "" {
		length := len(CleanForDisplay(text))
		i.printf("Display length: %d (%s)\n", length, DisplayFit(length))
	}
	i.println()
}

func (i *Inspector) reportFirstRecord(entry any) {
	first, ok := entry.(map[string]any)
	if !ok {
		i.printf("\nFirst hadith is %s, not an object\n", kindOf(entry))
		return
	}

	i.println("\nFirst hadith keys:")
	i.println(formatKeys(first))

	i.println("\nSearching for hadith text field...")
	if field, text, found := probeTextField(first); found {
		i.printf("Found hadith in field: %s\n", field)
		i.println("\nHadith text:")
		i.println(truncate(text, previewLength))
	} else {
		i.println("Could not find hadith text in any expected field")
	}

	i.println("\nSearching for source fields...")
	var book, chapter string
	if v, ok := lookup(first, "book"); ok {
		book = sourceLabel(v, "bookName")
		i.printf("Found book: %s\n", book)
	} else {
		i.println("Book field not found")
	}
	if v, ok := lookup(first, "chapter"); ok {
		chapter = sourceLabel(v, "chapterEnglish")
		i.printf("Found chapter: %s\n", chapter)
	} else {
		i.println("Chapter field not found")
	}

	if book != "" && chapter != "" {
		i.println("\nSource:")
		i.printf("%s - %s\n", book, chapter)
	}
}

func (i *Inspector) printf(format string, args ...any) {
	fmt.Fprintf(i.out, format, args...)
}

func (i *Inspector) println(args ...any) {
	fmt.Fprintln(i.out, args...)
}
