package amazon

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const signinPathFragment = "/ap/signin"

// IsAuthenticated probes the session by loading the order history.
// an unauthenticated session gets redirected to the sign-in form.
func (c *Client) IsAuthenticated(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:IsAuthenticated")
	defer span.End()

	err := c.page.Navigate(ctx, c.orderHistoryUrl())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to probe sign-in state")
		return false, err
	}

	authenticated := !strings.Contains(c.page.URL(), signinPathFragment)
	span.SetAttributes(attribute.Bool("authenticated", authenticated))
	return authenticated, nil
}

// AwaitManualAuthentication parks on the sign-in form and polls until
// the user completes login in the browser window, mfa included. the
// only way out besides success is ctx expiring.
func (c *Client) AwaitManualAuthentication(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:AwaitManualAuthentication")
	defer span.End()

	authenticated, err := c.IsAuthenticated(ctx)
	if err != nil {
		return err
	}
	if authenticated {
		return nil
	}

	slog.InfoContext(ctx, "waiting for sign in, complete the login in the browser window")

	ticker := time.NewTicker(time.Second * 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			span.SetStatus(codes.Error, "gave up waiting for sign in")
			return ctx.Err()
		case <-ticker.C:
			if strings.Contains(c.page.URL(), signinPathFragment) {
				continue
			}
			// left the sign-in form, confirm with a fresh probe
			authenticated, err := c.IsAuthenticated(ctx)
			if err != nil {
				return err
			}
			if authenticated {
				slog.InfoContext(ctx, "signed in")
				return nil
			}
		}
	}
}
