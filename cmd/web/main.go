// @title           Seribro API
// @version         1.0
// @description     Маркетплейс проектов: студенты откликаются, компании выбирают исполнителя.
// @contact.name    Seribro
// @contact.email   support@seribro.test
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import "seribro_backend/internal/app"

func main() {
	app.Run()
}
