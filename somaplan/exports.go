// Package somaplan provides top-level convenience functions for common operations.
//
// These functions provide shortcuts for the most common SDK operations.
package somaplan

import (
	"context"

	"github.com/somaplan/somaplan-sdk-go/somaplan/match"
	"github.com/somaplan/somaplan-sdk-go/somaplan/resources"
	"github.com/somaplan/somaplan-sdk-go/somaplan/session"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// SignIn signs in with a phone number and password.
//
// This is a convenience function equivalent to:
//
//	sess, err := client.Session().Login(ctx, phoneNumber, password)
//
// Example:
//
//	sess, err := somaplan.SignIn(client, "0712345678", "password")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Signed in as %s\n", sess.User.FullName())
func SignIn(client *Client, phoneNumber, password string) (session.Session, error) {
	return client.Session().Login(context.Background(), phoneNumber, password)
}

// SearchCourses searches the course catalogue by name, code or university.
//
// Example:
//
//	courses, err := somaplan.SearchCourses(client, "medicine")
//	for _, c := range courses {
//		fmt.Printf("%s at %s (%d points)\n", c.Name, c.UniversityName, c.MinimumPoints)
//	}
func SearchCourses(client *Client, query string) ([]types.Course, error) {
	return client.Courses().List(context.Background(), &resources.ListCoursesParams{
		Search: types.String(query),
	})
}

// GetCourse retrieves a course by ID.
//
// Example:
//
//	course, err := somaplan.GetCourse(client, 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Cluster subjects: %v\n", course.ClusterSubjects)
func GetCourse(client *Client, courseID int) (*types.Course, error) {
	return client.Courses().Get(context.Background(), courseID)
}

// QualifyingCourses lists the courses the given KCSE grades qualify for.
//
// It fetches the catalogue with the supplied filters and keeps only the
// courses whose cluster points requirement the grades meet.
//
// Example:
//
//	grades := []types.GradeEntry{
//		{Subject: "Mathematics", Grade: "A"},
//		{Subject: "English", Grade: "B+"},
//		{Subject: "Biology", Grade: "B"},
//		{Subject: "Chemistry", Grade: "B-"},
//	}
//	courses, err := somaplan.QualifyingCourses(client, grades, nil)
func QualifyingCourses(client *Client, grades []types.GradeEntry, params *resources.ListCoursesParams) ([]types.Course, error) {
	courses, err := client.Courses().List(context.Background(), params)
	if err != nil {
		return nil, err
	}
	var qualified []types.Course
	for _, c := range courses {
		ok, err := match.Qualifies(grades, &c)
		if err != nil {
			return nil, err
		}
		if ok {
			qualified = append(qualified, c)
		}
	}
	return qualified, nil
}

// SelectCourse shortlists a course for the signed-in user.
//
// Example:
//
//	sel, err := somaplan.SelectCourse(client, 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Selected: %s\n", sel.CourseName)
func SelectCourse(client *Client, courseID int) (*types.Selection, error) {
	return client.SelectedCourses().Add(context.Background(), courseID)
}

// CheckSubscription returns the signed-in user's subscription state.
//
// Example:
//
//	state, err := somaplan.CheckSubscription(client)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if state.RenewalEligible {
//		fmt.Printf("Renew for KES %.0f\n", state.RenewalAmount)
//	}
func CheckSubscription(client *Client) (*resources.SubscriptionState, error) {
	return client.Payments().ActiveSubscription(context.Background())
}

// PayAndWait initiates an M-Pesa payment and blocks until it reaches a
// terminal status or the poll window closes.
//
// Example:
//
//	payment, err := somaplan.PayAndWait(client, "0712345678", 200)
//	if errors.Is(err, somaplan.ErrConfirmationTimeout) {
//		fmt.Printf("still pending, reference %s\n", payment.Reference)
//	} else if err != nil {
//		log.Fatal(err)
//	}
func PayAndWait(client *Client, phoneNumber string, amount float64) (*types.Payment, error) {
	ctx := context.Background()
	payment, err := client.Payments().Initiate(ctx, &resources.InitiateRequest{
		PhoneNumber: phoneNumber,
		Amount:      amount,
	})
	if err != nil {
		return nil, err
	}
	return client.Payments().WaitForConfirmation(ctx, payment.Reference, resources.PollOptions{})
}
