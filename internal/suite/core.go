package suite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bgricker/apiconform/internal/harness"
	"github.com/bgricker/apiconform/internal/issues"
)

// Core exercises registration, the authenticated session lifecycle, database
// access and error handling of the booking API.
func Core() Suite {
	return Suite{
		Name:        "core",
		Title:       "TrimTime Backend API Test Suite",
		Description: "Tests authentication, user registration, and database operations",
		Source:      SourceBuiltin,
		Build:       buildCore,
		Rules: []issues.Rule{
			{Match: "Profile", Issue: "User profile creation missing after signup - RLS policies likely failing"},
			{Match: "Auth", Issue: "Authentication flow has critical issues"},
			{Match: "DB Test", Issue: "Database operations failing - likely RLS policy violations"},
		},
		Sections: []Section{
			{
				Title:    "RECOMMENDATIONS",
				Numbered: true,
				Items: []string{
					"Implement user profile creation in users table after auth signup",
					"Add role-based registration (customer vs barber)",
					"Create barber_shops records for barber users",
					"Verify RLS policies allow users to create their own records",
					"Add proper error handling for database operations",
				},
			},
		},
	}
}

func buildCore(env Env) []harness.TestCase {
	customer := newCredentials(env, "customer")
	barber := newCredentials(env, "barber")
	authUser := newCredentials(env, "auth.test")
	dbUser := newCredentials(env, "db.test")

	return []harness.TestCase{
		healthCheck(env, true),
		signupCase(env, "Customer Signup", customer),
		after(testCase("Customer Signin", http.MethodPost, "/auth/signin", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signIn(ctx, env.Client, customer)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Signin failed: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Signin after signup successful", nil), nil
		}), "Customer Signup"),
		after(testCase("Get User Profile", http.MethodGet, "/auth/user", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Get(ctx, "/auth/user")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot get user profile: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can retrieve user profile", nil), nil
		}), "Customer Signin"),
		signupCase(env, "Barber Signup", barber),
		after(testCase("Get Shops", http.MethodGet, "/shops", func(ctx context.Context) (harness.Outcome, error) {
			signin, err := signIn(ctx, env.Client, barber)
			if err != nil {
				return harness.Outcome{}, err
			}
			if signin.Status != http.StatusOK {
				return harness.Skip(fmt.Sprintf("Skipped: barber signin failed: %d", signin.Status), bodyDetails(signin)), nil
			}
			resp, err := env.Client.Get(ctx, "/shops")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot access shops: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can access shops endpoint", map[string]any{"shop_count": resp.Count("shops")}), nil
		}), "Barber Signup"),
		testCase("Auth Flow - Signup", http.MethodPost, "/auth/signup", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signUp(ctx, env.Client, authUser)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Signup failed: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Signup successful", map[string]any{"email": authUser.Email}), nil
		}),
		after(testCase("Auth Flow - Signin", http.MethodPost, "/auth/signin", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signIn(ctx, env.Client, authUser)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Signin failed: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Signin successful", nil), nil
		}), "Auth Flow - Signup"),
		after(testCase("Auth Flow - Protected Access", http.MethodGet, "/auth/user", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Get(ctx, "/auth/user")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot access protected endpoint: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can access protected endpoints", nil), nil
		}), "Auth Flow - Signin"),
		after(testCase("Auth Flow - Signout", http.MethodPost, "/auth/signout", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signOut(ctx, env.Client)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Signout failed: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Signout successful", nil), nil
		}), "Auth Flow - Signin"),
		after(expectProtected(env, "Auth Flow - Post-Signout Protection", "/auth/user",
			"Protected endpoints properly secured after signout",
			"Protected endpoint accessible after signout: %d"), "Auth Flow - Signout"),
		testCase("DB Test - User Creation", http.MethodPost, "/auth/signup", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signUp(ctx, env.Client, dbUser)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot create user: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("User created", map[string]any{"email": dbUser.Email}), nil
		}),
		after(testCase("DB Test - User Signin", http.MethodPost, "/auth/signin", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := signIn(ctx, env.Client, dbUser)
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot signin: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("User created and signed in", map[string]any{"user_id": resp.JSON("user.id").String()}), nil
		}), "DB Test - User Creation"),
		after(testCase("DB Test - Get Bookings", http.MethodGet, "/bookings", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Get(ctx, "/bookings")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot get bookings: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can retrieve bookings", map[string]any{"booking_count": resp.Count("bookings")}), nil
		}), "DB Test - User Signin"),
		after(testCase("DB Test - Get Shops", http.MethodGet, "/shops", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Get(ctx, "/shops")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot get shops: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can retrieve shops", map[string]any{"shop_count": resp.Count("shops")}), nil
		}), "DB Test - User Signin"),
		after(testCase("DB Test - Create Booking", http.MethodPost, "/bookings", func(ctx context.Context) (harness.Outcome, error) {
			shops, err := env.Client.Get(ctx, "/shops")
			if err != nil {
				return harness.Outcome{}, err
			}
			if shops.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot get shops: %d", shops.Status), bodyDetails(shops)), nil
			}
			shopID := shops.JSON("shops.0.id")
			if !shopID.Exists() {
				return harness.Fail("No shops available to test booking", nil), nil
			}
			resp, err := env.Client.Post(ctx, "/bookings", map[string]any{
				"shopId":  shopID.Value(),
				"service": "Haircut",
			})
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusOK {
				return harness.Fail(fmt.Sprintf("Cannot create booking: %d", resp.Status), bodyDetails(resp)), nil
			}
			return harness.Pass("Can create booking", nil), nil
		}), "DB Test - Get Shops"),
		testCase("Error Handling - Invalid Credentials", http.MethodPost, "/auth/signin", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Post(ctx, "/auth/signin", credentials{Email: "nonexistent@test.com", Password: "wrongpassword"})
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusBadRequest {
				return harness.Fail(fmt.Sprintf("Unexpected response: %d", resp.Status), nil), nil
			}
			return harness.Pass("Properly rejects invalid credentials", nil), nil
		}),
		testCase("Error Handling - Malformed Request", http.MethodPost, "/auth/signin", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Post(ctx, "/auth/signin", map[string]string{"invalid": "data"})
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status < http.StatusBadRequest {
				return harness.Fail(fmt.Sprintf("Accepts malformed request: %d", resp.Status), nil), nil
			}
			return harness.Pass("Properly handles malformed requests", nil), nil
		}),
		testCase("Error Handling - Not Found", http.MethodGet, "/nonexistent", func(ctx context.Context) (harness.Outcome, error) {
			resp, err := env.Client.Get(ctx, "/nonexistent")
			if err != nil {
				return harness.Outcome{}, err
			}
			if resp.Status != http.StatusNotFound {
				return harness.Fail(fmt.Sprintf("Unexpected response for non-existent endpoint: %d", resp.Status), nil), nil
			}
			return harness.Pass("Properly returns 404 for non-existent endpoints", nil), nil
		}),
	}
}

// signupCase passes when signup answers 200 with a user object.
func signupCase(env Env, name string, creds credentials) harness.TestCase {
	return testCase(name, http.MethodPost, "/auth/signup", func(ctx context.Context) (harness.Outcome, error) {
		resp, err := signUp(ctx, env.Client, creds)
		if err != nil {
			return harness.Outcome{}, err
		}
		if resp.Status != http.StatusOK {
			return harness.Fail(fmt.Sprintf("Signup failed: HTTP %d", resp.Status), bodyDetails(resp)), nil
		}
		if !resp.JSON("user.id").Exists() {
			return harness.Fail("No user data in response", bodyDetails(resp)), nil
		}
		return harness.Pass("Basic auth signup successful", map[string]any{
			"user_id": resp.JSON("user.id").String(),
			"email":   creds.Email,
		}), nil
	})
}
