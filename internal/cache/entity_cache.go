package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/evaluation-console/internal/models"
)

// EntitySource is where the entity cache is loaded from.
type EntitySource interface {
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// EntityCache keeps the teacher and student lists in memory for selectors and
// name lookups. It is only mutated after the backend has confirmed a change.
type EntityCache struct {
	mu         sync.RWMutex
	teachers   []models.Teacher
	students   []models.Student
	teacherIdx map[string]int
	studentIdx map[string]int
	version    uint64
	teacherRev uint64
	studentRev uint64
}

// loadAttempts bounds how often Load refetches a list that changed underneath it.
const loadAttempts = 3

func NewEntityCache() *EntityCache {
	return &EntityCache{
		teacherIdx: map[string]int{},
		studentIdx: map[string]int{},
	}
}

// Load fetches both lists concurrently and replaces the cached contents only
// when both calls succeed. A list mutated while it was being fetched is fetched
// again, so a confirmed create or delete is never overwritten by an older list.
func (c *EntityCache) Load(ctx context.Context, src EntitySource) error {
	needTeachers, needStudents := true, true
	for attempt := 0; attempt < loadAttempts && (needTeachers || needStudents); attempt++ {
		teacherRev, studentRev := c.TeacherRevision(), c.StudentRevision()

		var teachers []models.Teacher
		var students []models.Student
		g, gctx := errgroup.WithContext(ctx)
		if needTeachers {
			g.Go(func() error {
				var err error
				teachers, err = src.ListTeachers(gctx)
				if err != nil {
					return fmt.Errorf("load teachers: %w", err)
				}
				return nil
			})
		}
		if needStudents {
			g.Go(func() error {
				var err error
				students, err = src.ListStudents(gctx)
				if err != nil {
					return fmt.Errorf("load students: %w", err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		c.mu.Lock()
		committed := false
		if needTeachers && c.teacherRev == teacherRev {
			c.setTeachersLocked(teachers)
			needTeachers, committed = false, true
		}
		if needStudents && c.studentRev == studentRev {
			c.setStudentsLocked(students)
			needStudents, committed = false, true
		}
		if committed {
			c.version++
		}
		c.mu.Unlock()
	}
	if needTeachers || needStudents {
		return ErrConcurrentUpdate
	}
	return nil
}

// TeacherRevision increases whenever the teacher list changes.
func (c *EntityCache) TeacherRevision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.teacherRev
}

// StudentRevision increases whenever the student list changes.
func (c *EntityCache) StudentRevision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.studentRev
}

// Version increases on every mutation.
func (c *EntityCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *EntityCache) Teachers() []models.Teacher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Teacher, len(c.teachers))
	copy(out, c.teachers)
	return out
}

func (c *EntityCache) Students() []models.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Student, len(c.students))
	copy(out, c.students)
	return out
}

func (c *EntityCache) Teacher(id string) (models.Teacher, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.teacherIdx[id]
	if !ok {
		return models.Teacher{}, false
	}
	return c.teachers[i], true
}

func (c *EntityCache) Student(id string) (models.Student, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.studentIdx[id]
	if !ok {
		return models.Student{}, false
	}
	return c.students[i], true
}

func (c *EntityCache) ReplaceTeachers(teachers []models.Teacher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setTeachersLocked(teachers)
	c.version++
}

// ReplaceTeachersAt replaces the list only if it is still at rev, the revision
// read before teachers was fetched.
func (c *EntityCache) ReplaceTeachersAt(teachers []models.Teacher, rev uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.teacherRev != rev {
		return false
	}
	c.setTeachersLocked(teachers)
	c.version++
	return true
}

func (c *EntityCache) ReplaceStudents(students []models.Student) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStudentsLocked(students)
	c.version++
}

// ReplaceStudentsAt is ReplaceTeachersAt for students.
func (c *EntityCache) ReplaceStudentsAt(students []models.Student, rev uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.studentRev != rev {
		return false
	}
	c.setStudentsLocked(students)
	c.version++
	return true
}

// AddTeacher appends t, or replaces the entry with the same ID.
func (c *EntityCache) AddTeacher(t models.Teacher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.teacherIdx[t.ID]; ok {
		c.teachers[i] = t
	} else {
		c.teacherIdx[t.ID] = len(c.teachers)
		c.teachers = append(c.teachers, t)
	}
	c.teacherRev++
	c.version++
}

// AddStudent appends s, or replaces the entry with the same ID.
func (c *EntityCache) AddStudent(s models.Student) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.studentIdx[s.ID]; ok {
		c.students[i] = s
	} else {
		c.studentIdx[s.ID] = len(c.students)
		c.students = append(c.students, s)
	}
	c.studentRev++
	c.version++
}

func (c *EntityCache) RemoveTeacher(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.teacherIdx[id]
	if !ok {
		return false
	}
	rest := make([]models.Teacher, 0, len(c.teachers)-1)
	rest = append(rest, c.teachers[:i]...)
	rest = append(rest, c.teachers[i+1:]...)
	c.setTeachersLocked(rest)
	c.version++
	return true
}

func (c *EntityCache) RemoveStudent(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.studentIdx[id]
	if !ok {
		return false
	}
	rest := make([]models.Student, 0, len(c.students)-1)
	rest = append(rest, c.students[:i]...)
	rest = append(rest, c.students[i+1:]...)
	c.setStudentsLocked(rest)
	c.version++
	return true
}

func (c *EntityCache) setTeachersLocked(teachers []models.Teacher) {
	c.teachers = make([]models.Teacher, len(teachers))
	copy(c.teachers, teachers)
	c.teacherIdx = make(map[string]int, len(teachers))
	for i, t := range c.teachers {
		c.teacherIdx[t.ID] = i
	}
	c.teacherRev++
}

func (c *EntityCache) setStudentsLocked(students []models.Student) {
	c.students = make([]models.Student, len(students))
	copy(c.students, students)
	c.studentIdx = make(map[string]int, len(students))
	for i, s := range c.students {
		c.studentIdx[s.ID] = i
	}
	c.studentRev++
}
