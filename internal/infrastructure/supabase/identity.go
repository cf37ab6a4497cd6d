package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain"
)

var _ ports.IdentityProvisioner = (*IdentityFunction)(nil)

const createUserFunction = "/functions/v1/create-user"

// IdentityFunction llama a la Edge Function que crea identidad y perfil.
// La función valida los permisos del llamador con su propio token.
type IdentityFunction struct {
	c *Client
}

func NewIdentityFunction(c *Client) *IdentityFunction {
	return &IdentityFunction{c: c}
}

type createUserResponse struct {
	Success bool                   `json:"success"`
	User    *ports.ProvisionedUser `json:"user"`
	Error   string                 `json:"error"`
}

func (f *IdentityFunction) CreateUser(ctx context.Context, callerToken string, req ports.CreateUserRequest) (*ports.ProvisionedUser, error) {
	if strings.TrimSpace(callerToken) == "" {
		return nil, domain.ErrUnauthorized
	}
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var resp createUserResponse
	err = f.c.do(ctx, request{
		method:      http.MethodPost,
		path:        createUserFunction,
		body:        body,
		contentType: "application/json",
		bearer:      callerToken,
	}, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == nil {
		if fe, ok := functionError(apiErr.Message).(*APIError); ok && fe.Kind != nil {
			apiErr.Kind = fe.Kind
		}
	}
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.User == nil {
		return nil, functionError(resp.Error)
	}
	return resp.User, nil
}

// functionError clasifica el mensaje de una respuesta success=false.
func functionError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already") || strings.Contains(lower, "registrad") || strings.Contains(lower, "exist"):
		return &APIError{Status: http.StatusOK, Message: msg, Kind: domain.ErrDuplicate}
	case strings.Contains(lower, "permis") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "forbidden"):
		return &APIError{Status: http.StatusOK, Message: msg, Kind: domain.ErrUnauthorized}
	case msg == "":
		return fmt.Errorf("supabase: create-user sin usuario en la respuesta")
	default:
		return &APIError{Status: http.StatusOK, Message: msg}
	}
}
