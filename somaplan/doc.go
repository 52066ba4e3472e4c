// Package somaplan provides the official Go SDK for SomaPlan.
//
// SomaPlan helps Kenyan students find university and KMTC courses they
// qualify for with their KCSE results. This SDK covers the full API:
// course, university and KMTC catalogues, KCSE grade matching, course
// selections, session management and M-Pesa subscription payments.
//
// # Basic Usage
//
// Create a client and browse the catalogue; no sign-in is needed for
// public data:
//
//	client, err := somaplan.NewClient()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	courses, err := client.Courses().List(ctx, &resources.ListCoursesParams{
//		Search: types.String("computer science"),
//	})
//
// # Signing In
//
// Sign in with a Safaricom phone number and password. The session
// manager persists the issued tokens and derives the access flags:
//
//	sess, err := client.Session().Login(ctx, "0712345678", "password")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if sess.RequirePayment {
//		fmt.Println("subscription needed for full results")
//	}
//
// On a later run, Reconcile restores and validates the stored session:
//
//	sess, err := client.Session().Reconcile(ctx)
//
// # Paying for a Subscription
//
// Payments go through M-Pesa STK push. Initiate and then wait for the
// confirmation:
//
//	payment, err := client.Payments().Initiate(ctx, &resources.InitiateRequest{
//		PhoneNumber: "0712345678",
//		Amount:      200,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	payment, err = client.Payments().WaitForConfirmation(ctx, payment.Reference, resources.PollOptions{})
//	if errors.Is(err, somaplan.ErrConfirmationTimeout) {
//		fmt.Println("no confirmation yet, check again later")
//	}
//
// # Error Handling
//
// All SDK errors implement the error interface and can be inspected:
//
//	course, err := client.Courses().Get(ctx, 42)
//	if err != nil {
//		if somaplan.IsNotFoundError(err) {
//			fmt.Println("course not found")
//		} else if somaplan.IsPaymentRequiredError(err) {
//			fmt.Println("subscription expired")
//		} else {
//			log.Fatal(err)
//		}
//	}
//
// # Resources
//
// The client provides access to various resources:
//
//   - Courses: Search and list university courses and KCSE subjects
//   - Universities: Universities, faculties and departments
//   - KMTC: KMTC campuses and programmes
//   - Selections: The user's shortlisted courses (see SelectedCourses
//     for the stateful mirror)
//   - Payments: M-Pesa subscription payments and status polling
//   - Auth: Sign-in, profile and token management
//   - Session: Derived session state with single-flight reconciliation
//   - Realtime: WebSocket payment and subscription events
package somaplan
