package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/netanel-haber/localfiles.stream/internal/domain"
	"github.com/netanel-haber/localfiles.stream/internal/ingest"
)

// Server is the share receiver: the isolated background context that accepts
// inbound share payloads. It only ever writes to the staging store via the
// producer and hands off to the foreground through a redirect flag plus the
// producer's signal channel. It never touches the blob or metadata stores.
type Server struct {
	addr     string
	producer *ingest.Producer
	maxBody  int64
	logger   *slog.Logger
}

// NewServer creates a share receiver listening on addr. maxBody caps one
// inbound request; 0 means no cap.
func NewServer(addr string, producer *ingest.Producer, maxBody int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, producer: producer, maxBody: maxBody, logger: logger}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/share", s.handleShare)
	mux.HandleFunc("/", s.handleRoot)

	srv := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("share receiver listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleShare accepts a multipart POST carrying shared files, stages the
// batch and redirects with the hand-off flag. Only the flag crosses back to
// the caller; the payloads travel through the staging store.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	files, err := readMultipart(r)
	if err != nil {
		s.logger.Error("failed to read share payload", "error", err)
		s.redirect(w, r, domain.ShareOutcome{OK: false, Name: "BadShare", Message: err.Error()})
		return
	}

	outcome := s.producer.Stage(r.Context(), files)
	s.redirect(w, r, outcome)
}

// handleRoot is the redirect target. It renders the drain flag or the
// encoded failure so a browser-side caller sees the same contract.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch q.Get("share") {
	case "success":
		fmt.Fprintln(w, "share received")
	case "error":
		fmt.Fprintf(w, "share failed: %s: %s\n", q.Get("name"), q.Get("message"))
	default:
		fmt.Fprintln(w, "localfiles.stream share receiver")
	}
}

// redirect encodes the tagged outcome into the navigation target.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, outcome domain.ShareOutcome) {
	var target string
	if outcome.OK {
		target = "/?share=success"
	} else {
		target = fmt.Sprintf("/?share=error&name=%s&message=%s",
			url.QueryEscape(outcome.Name), url.QueryEscape(outcome.Message))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// readMultipart extracts every attached file from the request. Parts without
// a filename are ignored; empty files travel through and are filtered by the
// consumer's validation, matching the staging contract.
func readMultipart(r *http.Request) ([]domain.IncomingFile, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("not a multipart request: %w", err)
	}

	var files []domain.IncomingFile
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed multipart body: %w", err)
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", part.FileName(), err)
		}

		mimeType := part.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, domain.IncomingFile{
			Name:     part.FileName(),
			MimeType: mimeType,
			Data:     data,
		})
	}
	return files, nil
}
