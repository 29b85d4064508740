// Package client drives the profile form flow against the HTTP API: stage an
// avatar locally, then submit avatar and name as one sequenced operation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
)

// MaxAvatarBytes is the client-side staging limit. Oversized files are
// refused before any network call happens.
const MaxAvatarBytes = 5 * 1024 * 1024

var (
	ErrFileTooLarge   = errors.New("please keep file size under 5MB")
	ErrSubmitInFlight = errors.New("a submit is already in progress")
)

type stagedFile struct {
	filename    string
	contentType string
	data        []byte
}

// ProfileForm mirrors the browser form: selecting a file only stages it, and
// Submit runs the avatar upload to completion before the field update. A
// busy flag keeps a second submit from interleaving with an in-flight one.
type ProfileForm struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client

	mu      sync.Mutex
	busy    bool
	pending *stagedFile
}

func NewProfileForm(baseURL, accessToken string) *ProfileForm {
	return &ProfileForm{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{},
	}
}

// StageAvatar records a pending file for the next Submit. Nothing is sent
// yet, so not submitting cancels the selection.
func (f *ProfileForm) StageAvatar(filename, contentType string, data []byte) error {
	if len(data) > MaxAvatarBytes {
		return ErrFileTooLarge
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = &stagedFile{filename: filename, contentType: contentType, data: data}
	return nil
}

// HasStagedAvatar reports whether a file selection is waiting for Submit.
func (f *ProfileForm) HasStagedAvatar() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pending != nil
}

// Submit uploads the staged avatar (if any) and then updates the name. The
// steps are sequenced: an upload failure halts the submit and the name is
// not sent. A successful step is never rolled back by a later failure.
func (f *ProfileForm) Submit(ctx context.Context, name string) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.busy = true
	pending := f.pending
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	if pending != nil {
		if err := f.uploadAvatar(ctx, pending); err != nil {
			return err
		}

		f.mu.Lock()
		f.pending = nil
		f.mu.Unlock()
	}

	return f.updateName(ctx, name)
}

func (f *ProfileForm) uploadAvatar(ctx context.Context, file *stagedFile) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, file.filename))
	header.Set("Content-Type", file.contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := part.Write(file.data); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		f.baseURL+"/v1/profile/me/avatar", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.accessToken)

	return f.do(req)
}

func (f *ProfileForm) updateName(ctx context.Context, name string) error {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		f.baseURL+"/v1/profile/me", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.accessToken)

	return f.do(req)
}

func (f *ProfileForm) do(req *http.Request) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)

		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return errors.New(errResp.Error)
		}

		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}
