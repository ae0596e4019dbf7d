// Package validation checks remote source URLs before anything is fetched.
package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "go-image-detector/internal/errors"
)

// Schemes accepted by default. Object-store schemes name a container or
// bucket as the host and need an object key as the path.
var (
	WebSchemes    = []string{"http", "https"}
	ObjectSchemes = []string{"azblob", "s3"}
)

// URLValidator handles source URL validation
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts web and object-store URLs for any host.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: slices.Concat(WebSchemes, ObjectSchemes),
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options.
// An empty host list allows every host.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Parse validates imageURL and returns it parsed.
func (v *URLValidator) Parse(imageURL string) (*url.URL, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if !slices.Contains(v.allowedSchemes, scheme) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if slices.Contains(ObjectSchemes, scheme) && strings.Trim(parsedURL.Path, "/") == "" {
		return nil, apperrors.NewValidationError("URL must name an object", nil)
	}

	if len(v.allowedHosts) > 0 && !slices.Contains(v.allowedHosts, parsedURL.Host) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	parsedURL.Scheme = scheme
	return parsedURL, nil
}

// ValidateImageURL validates if the provided URL is acceptable as an image source
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	_, err := v.Parse(imageURL)
	return err
}
