package integration

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/joshmarlow/data-schema/pkg/server/middleware"
)

func issueToken(tc *TestContext, subject string) (string, error) {
	return middleware.IssueToken([]byte(tc.Config.JWTSecret), tc.Config.JWTIssuer, subject, time.Minute)
}

func (s *StepsContext) iAmAuthenticatedAs(subject string) error {
	token, err := issueToken(s.tc, subject)
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iAmNotAuthenticated() error {
	s.authToken = ""
	return nil
}

func (s *StepsContext) iPresentATokenSignedWithTheWrongSecret() error {
	token, err := middleware.IssueToken([]byte("not-the-secret"), s.tc.Config.JWTIssuer, "intruder", time.Minute)
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iPresentAnExpiredToken() error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.tc.Config.JWTIssuer,
			Subject:   "late",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(s.tc.Config.JWTSecret))
	if err != nil {
		return err
	}
	s.authToken = signed
	return nil
}
