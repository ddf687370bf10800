package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/sirupsen/logrus"

	"github.com/metabuy/metabuy-api/internal/container"
	"github.com/metabuy/metabuy-api/internal/router"
)

func main() {
	c := container.New()

	mux := router.New(router.RouterConfig{
		UserHandler:       c.UserContainer.Handler,
		GoalHandler:       c.GoalContainer.Handler,
		TeamGoalHandler:   c.TeamGoalContainer.Handler,
		InvitationHandler: c.InvitationContainer.Handler,
		QuickListHandler:  c.QuickListContainer.Handler,
	})

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		adapter := chiadapter.New(mux)
		lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			return adapter.ProxyWithContext(ctx, req)
		})
		return
	}

	addr := ":" + c.Config.Port
	logrus.WithField("addr", addr).Info("Starting HTTP server")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logrus.WithError(err).Fatal("HTTP server stopped")
	}
}
