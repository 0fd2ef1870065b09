package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pixelcourt/pixelcourt/internal/events"
	"github.com/pixelcourt/pixelcourt/internal/models"
	"github.com/pixelcourt/pixelcourt/internal/playback"
)

const (
	dialTimeout  = 10 * time.Second
	readDeadline = 5 * time.Minute
)

// Session follows one job's event stream and appends presentation steps to
// the playback queue as they arrive. It also accumulates the transcript for
// export once the verdict lands.
type Session struct {
	serverURL string
	jobID     string
	queue     *playback.StepQueue
	engine    *playback.Engine
	logger    *logrus.Logger

	conn *websocket.Conn

	factors    []models.Factor
	factorIdx  map[string]int
	completed  map[string]bool
	rounds     int
	transcript []*playback.Step
	synthesis  *models.Synthesis
}

// NewSession dials the server's event endpoint and joins the job's room.
// The caller must run Follow to start consuming events.
func NewSession(ctx context.Context, serverURL, jobID string, rounds int, queue *playback.StepQueue, engine *playback.Engine, logger *logrus.Logger) (*Session, error) {
	wsURL, err := eventURL(serverURL)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing event stream: %w", err)
	}

	join := map[string]string{"type": "join-job", "jobId": jobID}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("joining job room: %w", err)
	}

	return &Session{
		serverURL: serverURL,
		jobID:     jobID,
		queue:     queue,
		engine:    engine,
		logger:    logger,
		conn:      conn,
		factorIdx: make(map[string]int),
		completed: make(map[string]bool),
		rounds:    rounds,
	}, nil
}

// eventURL rewrites the server base URL to the websocket event endpoint.
func eventURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}

// Follow reads events until the stream ends with a verdict or an error.
// It blocks; run it in its own goroutine alongside the engine.
func (s *Session) Follow(ctx context.Context) error {
	defer s.conn.Close()
	defer s.queue.Close()

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	for {
		s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		var env events.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}

		done, err := s.handle(&env)
		if err != nil {
			s.logger.WithError(err).WithField("type", env.Type).Warn("Dropping malformed event")
			continue
		}
		if done {
			return nil
		}
	}
}

// handle translates one event into zero or more steps. It returns done=true
// after the verdict or a pipeline error, after which the stream carries
// nothing further of interest.
func (s *Session) handle(env *events.Envelope) (bool, error) {
	switch env.Type {
	case events.TypeStatus:
		var p events.StatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		s.logger.WithField("status", p.Status).Debug("Pipeline status")
		return false, nil

	case events.TypeFactorsExtracted:
		var p events.FactorsExtractedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		s.factors = p.Factors
		for i, f := range p.Factors {
			s.factorIdx[f.ID] = i
		}
		if len(p.Factors) > 0 {
			s.append(NewFactorAnnouncementStep(p.Factors))
		}
		return false, nil

	case events.TypeFactorStarted:
		var p events.FactorStartedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		idx, ok := s.factorIdx[p.FactorID]
		if !ok {
			return false, fmt.Errorf("unknown factor %q", p.FactorID)
		}
		s.append(NewFactorStartStep(s.factors[idx], idx))
		return false, nil

	case events.TypeSupportTurn, events.TypeOpposeTurn:
		var p events.TurnPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		s.append(NewTurnStep(p.Data, p.FactorName, p.Round, s.rounds))
		return false, nil

	case events.TypeFactorComplete:
		var p events.FactorCompletePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		idx, ok := s.factorIdx[p.FactorID]
		if !ok {
			return false, fmt.Errorf("unknown factor %q", p.FactorID)
		}
		s.completed[p.FactorID] = true
		s.logger.WithField("factor", s.factors[idx].Name).Debug("Factor deliberation complete")
		return false, nil

	case events.TypeSynthesisComplete:
		var p events.SynthesisCompletePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		s.synthesis = &p.Synthesis
		s.append(NewVerdictStep(p.Synthesis))
		return true, nil

	case events.TypeError:
		var p events.ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return false, err
		}
		s.engine.Fail(p.Message)
		return true, nil

	default:
		s.logger.WithField("type", env.Type).Debug("Ignoring unknown event type")
		return false, nil
	}
}

func (s *Session) append(step *playback.Step) {
	s.transcript = append(s.transcript, step)
	s.queue.Append(step)
}

// Transcript returns the steps accumulated so far, in arrival order.
func (s *Session) Transcript() []*playback.Step {
	return s.transcript
}

// Factors returns the extracted factor list, or nil before extraction.
func (s *Session) Factors() []models.Factor {
	return s.factors
}

// CompletedFactors reports which factors have finished deliberation,
// keyed by factor ID.
func (s *Session) CompletedFactors() map[string]bool {
	return s.completed
}

// Synthesis returns the final ruling, or nil before the verdict.
func (s *Session) Synthesis() *models.Synthesis {
	return s.synthesis
}

// analyzeResponse mirrors the server's job submission reply.
type analyzeResponse struct {
	JobID string `json:"jobId"`
}

// SubmitDocument uploads a document for deliberation and returns the new
// job's ID.
func SubmitDocument(ctx context.Context, serverURL, filename string, document []byte, rounds int) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if _, err := part.Write(document); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if err := writer.WriteField("turns", strconv.Itoa(rounds)); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/analyze", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("submit rejected: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding submit response: %w", err)
	}
	return parsed.JobID, nil
}
