package main

import (
	"alcyxob/gym-saas/internal/app"

	"go.uber.org/fx"
)

// @title Gym Management API
// @version 1.0
// @description Multi-tenant gym management: onboarding, members, QR attendance, classes, workouts, content and reports.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	fx.New(app.Options(".")).Run()
}
