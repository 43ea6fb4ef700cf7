package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/medicore/internal/app"
)

// @title           MediCore API
// @version         1.0
// @description     MediCore provides authentication, encrypted medical records, consultations and audit trail APIs.
// @contact.name    MediCore Support
// @contact.email   support@medicore.local
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	wait := application.Start()
	<-wait
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}
