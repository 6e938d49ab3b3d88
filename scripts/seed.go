// Seed script for local development.
//
// Creates a demo instructor, two students, and a published course with
// lessons so the frontend has something to render on a fresh database.
//
// Usage: go run scripts/seed.go
package main

import (
	"log"
	"os"
	"time"

	"edunexus_backend/internal/config"
	"edunexus_backend/internal/model"
	"edunexus_backend/pkg/database"
	"edunexus_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("Cannot read config file: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Cannot parse config file: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	instructor := model.User{
		Name:         "Ada Instructor",
		Email:        "ada@edunexus.dev",
		Password:     string(password),
		Role:         model.Instructor,
		Organization: "EduNexus Academy",
		Bio:          "Teaches Go and distributed systems.",
	}
	if err := db.Where("email = ?", instructor.Email).FirstOrCreate(&instructor).Error; err != nil {
		log.Fatalf("Seeding instructor failed: %v", err)
	}

	students := []model.User{
		{Name: "Sam Student", Email: "sam@edunexus.dev", Password: string(password), Role: model.Student},
		{Name: "Riley Learner", Email: "riley@edunexus.dev", Password: string(password), Role: model.Student},
	}
	for i := range students {
		if err := db.Where("email = ?", students[i].Email).FirstOrCreate(&students[i]).Error; err != nil {
			log.Fatalf("Seeding student failed: %v", err)
		}
	}

	now := time.Now()
	course := model.Course{
		Title:        "Practical Go for Backend Developers",
		Description:  "Build production web services in Go, from routing and persistence to deployment.",
		InstructorID: instructor.ID,
		Category:     "Web Development",
		Level:        model.LevelBeginner,
		Language:     "English",
		IsPublished:  true,
		PublishedAt:  &now,
	}
	if err := db.Where("title = ? AND instructor_id = ?", course.Title, instructor.ID).
		FirstOrCreate(&course).Error; err != nil {
		log.Fatalf("Seeding course failed: %v", err)
	}

	lessons := []model.Lesson{
		{CourseID: course.ID, Title: "Getting Started", Duration: 12, Order: 1, IsPreview: true},
		{CourseID: course.ID, Title: "HTTP Handlers and Routing", Duration: 25, Order: 2},
		{CourseID: course.ID, Title: "Talking to the Database", Duration: 30, Order: 3},
		{CourseID: course.ID, Title: "Shipping to Production", Duration: 18, Order: 4},
	}
	for i := range lessons {
		if err := db.Where("course_id = ? AND sort_order = ?", course.ID, lessons[i].Order).
			FirstOrCreate(&lessons[i]).Error; err != nil {
			log.Fatalf("Seeding lesson failed: %v", err)
		}
	}

	course.Lessons = lessons
	db.Model(&course).Update("duration", course.CalculateDuration())

	log.Println("Seed data ready.")
}
