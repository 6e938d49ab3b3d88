package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFoldRating(t *testing.T) {
	c := &Course{}

	c.FoldRating(4)
	assert.Equal(t, 1, c.RatingCount)
	assert.InDelta(t, 4.0, c.RatingAverage, 0.001)

	c.FoldRating(2)
	assert.Equal(t, 2, c.RatingCount)
	assert.InDelta(t, 3.0, c.RatingAverage, 0.001)

	c.FoldRating(5)
	assert.Equal(t, 3, c.RatingCount)
	assert.InDelta(t, 11.0/3.0, c.RatingAverage, 0.001)
}

func TestCalculateDuration(t *testing.T) {
	c := &Course{
		Lessons: []Lesson{
			{Duration: 10},
			{Duration: 25},
			{Duration: 5},
		},
	}

	assert.Equal(t, 40, c.CalculateDuration())
	assert.Equal(t, 40, c.Duration)
	assert.Equal(t, 3, c.TotalLessons())
}

func TestHasLesson(t *testing.T) {
	c := &Course{Lessons: []Lesson{
		{BaseModel: BaseModel{ID: 1}},
		{BaseModel: BaseModel{ID: 9}},
	}}

	assert.True(t, c.HasLesson(9))
	assert.False(t, c.HasLesson(3))
}

func TestPublishUnpublish(t *testing.T) {
	c := &Course{}
	now := time.Now()

	c.Publish(now)
	assert.True(t, c.IsPublished)
	assert.Equal(t, now, *c.PublishedAt)

	c.Unpublish()
	assert.False(t, c.IsPublished)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, ValidCategory("Web Development"))
	assert.True(t, ValidCategory("Other"))
	assert.False(t, ValidCategory("Underwater Basket Weaving"))
	assert.False(t, ValidCategory(""))
}
