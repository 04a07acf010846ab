package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	apperrors "medbook/internal/errors"
	"medbook/internal/model"
	"medbook/internal/service"
)

// Doctor is one entry of a doctor seed file.
type Doctor struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Available      *bool  `json:"available"`
	Specialization string `json:"specialization"`
}

// Result summarises a seeding run.
type Result struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Load reads doctors from a local JSON file or an http(s) URL.
func Load(ctx context.Context, source string) ([]Doctor, error) {
	var r io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", source, err)
		}
		r = f
	}
	defer r.Close()

	var doctors []Doctor
	if err := json.NewDecoder(r).Decode(&doctors); err != nil {
		return nil, fmt.Errorf("parse doctors: %w", err)
	}
	return doctors, nil
}

// Apply registers each doctor. Existing emails and incomplete entries are
// skipped; any other failure aborts the run.
func Apply(ctx context.Context, identity service.IdentityService, doctors []Doctor) (Result, error) {
	var res Result
	for _, d := range doctors {
		_, err := identity.Register(ctx, service.RegisterInput{
			Email:          d.Email,
			Password:       d.Password,
			Name:           d.Name,
			Role:           model.RoleDoctor,
			Available:      d.Available,
			Specialization: d.Specialization,
		})
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, apperrors.ErrDuplicateEmail), errors.Is(err, apperrors.ErrMissingDoctorFields):
			res.Skipped++
		default:
			return res, fmt.Errorf("register %s: %w", d.Email, err)
		}
	}
	return res, nil
}
