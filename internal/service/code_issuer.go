package service

import (
	"context"
	"errors"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxGymCodeAttempts bounds re-derivation when a freshly issued gym code is
// already taken.
const maxGymCodeAttempts = 3

// CodeIssuer hands out gym and member codes from atomic counters.
type CodeIssuer struct {
	counters repository.CounterRepository
}

func NewCodeIssuer(counters repository.CounterRepository) *CodeIssuer {
	return &CodeIssuer{counters: counters}
}

// NextGymCode returns prefix followed by the prefix's next suffix, starting at 0.
func (c *CodeIssuer) NextGymCode(ctx context.Context, prefix string) (string, error) {
	seq, err := c.counters.Next(ctx, "gym:"+prefix)
	if err != nil {
		return "", err
	}
	return domain.GymCode(prefix, seq), nil
}

// NextMemberCode returns the gym's next member code, numbered from 1.
func (c *CodeIssuer) NextMemberCode(ctx context.Context, gymID primitive.ObjectID, gymCode string) (string, error) {
	seq, err := c.counters.Next(ctx, "member:"+gymID.Hex())
	if err != nil {
		return "", err
	}
	return domain.MemberCode(gymCode, seq+1), nil
}

// withGymCode calls insert with successive codes for prefix until one is
// accepted. insert reports a taken code as repository.ErrDuplicate.
func (c *CodeIssuer) withGymCode(ctx context.Context, prefix string, insert func(code string) error) (string, error) {
	for attempt := 0; attempt < maxGymCodeAttempts; attempt++ {
		code, err := c.NextGymCode(ctx, prefix)
		if err != nil {
			return "", upstream(ctx, "issue gym code", err)
		}
		err = insert(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return "", err
		}
	}
	return "", ErrGymCodeTaken
}
