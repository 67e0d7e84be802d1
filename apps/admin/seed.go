package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/upskillhub/upskill/core/course"
)

// catalog is the layout of a seed file:
//
//	courses:
//	  - title: Go for Beginners
//	    skill_track: coding
//	    total_lessons: 12
type catalog struct {
	Courses []course.NewCourse `yaml:"courses"`
}

func parseCatalog(data []byte) (catalog, error) {
	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return catalog{}, errors.Wrap(err, "parsing catalog")
	}
	return cat, nil
}

// seed creates the courses of the catalog. Courses whose title already exists are skipped.
func (cli *commandLine) seed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading catalog")
	}
	cat, err := parseCatalog(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	existing, err := cli.courseSvc.ListCourses(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	titles := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		titles[strings.ToLower(c.Title)] = struct{}{}
	}

	var created, skipped int
	for i, nc := range cat.Courses {
		nc.Clean()
		if err = cli.validate.Struct(nc); err != nil {
			return errors.Wrapf(err, "course #%d", i+1)
		}
		key := strings.ToLower(nc.Title)
		if _, ok := titles[key]; ok {
			skipped++
			continue
		}
		if _, err = cli.courseSvc.CreateCourse(ctx, nc); err != nil {
			return errors.Wrapf(err, "creating %q", nc.Title)
		}
		titles[key] = struct{}{}
		created++
	}
	fmt.Fprintf(cli.out, "%d courses created, %d skipped\n", created, skipped)
	return nil
}
