package voice

import (
	"context"
	"errors"
)

// ErrFakeUnavailable is what a scripted failing voice returns.
var ErrFakeUnavailable = errors.New("voice unavailable")

// FakeReviewer is a scripted Reviewer for tests and dry runs. It records the
// prompts it was given and replies with a fixed response, or fails every
// call when Fail is set.
type FakeReviewer struct {
	VoiceName string
	Response  string
	Fail      bool
	Delay     func(ctx context.Context) error

	Prompts []string
}

// NewFakeReviewer returns a fake voice that answers every prompt with response.
func NewFakeReviewer(name, response string) *FakeReviewer {
	return &FakeReviewer{VoiceName: name, Response: response}
}

func (f *FakeReviewer) Name() string { return f.VoiceName }

func (f *FakeReviewer) Review(ctx context.Context, prompt string) (*RawResponse, error) {
	f.Prompts = append(f.Prompts, prompt)

	if f.Delay != nil {
		if err := f.Delay(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Fail {
		return nil, ErrFakeUnavailable
	}
	return &RawResponse{Text: f.Response}, nil
}
