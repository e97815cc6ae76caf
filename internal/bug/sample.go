package bug

import (
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/bugboard/internal/models"
)

// sampleNamespace derives stable comment IDs for the sample data set.
var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/zulandar/bugboard/samples"))

func sampleTime(value string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDue(value string) *time.Time {
	t := sampleTime(value)
	return &t
}

func sampleComment(bugID, n, author, content, at string) models.Comment {
	return models.Comment{
		ID:        uuid.NewSHA1(sampleNamespace, []byte(bugID+"/"+n)).String(),
		BugID:     bugID,
		Author:    author,
		Content:   content,
		CreatedAt: sampleTime(at),
	}
}

// SampleBugs returns the demo data set in display order. Each call returns
// fresh values that callers may modify.
func SampleBugs() []models.Bug {
	return []models.Bug{
		{
			ID:          "bug-00001",
			Seq:         1,
			Title:       "Login form validation not working on mobile devices",
			Description: "Users are unable to submit the login form on mobile devices. The validation errors are not showing up properly.",
			Status:      models.StatusOpen,
			Priority:    models.PriorityHigh,
			Category:    "Authentication",
			Assignee:    "Sarah Johnson",
			Reporter:    "Mike Chen",
			CreatedAt:   sampleTime("2024-01-15T10:30:00"),
			UpdatedAt:   sampleTime("2024-01-15T14:20:00"),
			DueDate:     sampleDue("2024-01-20T00:00:00"),
			Tags:        []string{"mobile", "validation", "login"},
			Comments: []models.Comment{
				sampleComment("bug-00001", "1", "Sarah Johnson",
					"I can reproduce this issue on iOS Safari. Looking into it now.", "2024-01-15T11:00:00"),
			},
			Attachments: []string{"screenshot-mobile-login.png"},
			ReproductionSteps: []string{
				"Open the app on a mobile device",
				"Navigate to login page",
				"Enter invalid credentials",
				"Try to submit the form",
			},
			Environment: "Mobile Safari iOS 17",
			Version:     "2.1.4",
		},
		{
			ID:          "bug-00002",
			Seq:         2,
			Title:       "Database connection timeout during peak hours",
			Description: "The application is experiencing database connection timeouts during peak usage hours (12 PM - 2 PM EST).",
			Status:      models.StatusInProgress,
			Priority:    models.PriorityCritical,
			Category:    "Database",
			Assignee:    "Alex Rodriguez",
			Reporter:    "Emma Wilson",
			CreatedAt:   sampleTime("2024-01-14T09:15:00"),
			UpdatedAt:   sampleTime("2024-01-15T16:45:00"),
			DueDate:     sampleDue("2024-01-16T00:00:00"),
			Tags:        []string{"database", "performance", "timeout"},
			Comments: []models.Comment{
				sampleComment("bug-00002", "1", "Alex Rodriguez",
					"Added connection pooling configuration. Testing on staging.", "2024-01-15T16:45:00"),
			},
			Attachments: []string{"db-logs.txt", "performance-metrics.pdf"},
			ReproductionSteps: []string{
				"Access application during peak hours",
				"Perform database-heavy operations",
				"Observe timeout errors",
			},
			Environment: "Production - AWS RDS MySQL",
			Version:     "2.1.4",
		},
		{
			ID:          "bug-00003",
			Seq:         3,
			Title:       "Search results pagination not working correctly",
			Description: "When navigating through search results pages, some results are duplicated and others are missing.",
			Status:      models.StatusTesting,
			Priority:    models.PriorityMedium,
			Category:    "Search",
			Assignee:    "David Kim",
			Reporter:    "Lisa Brown",
			CreatedAt:   sampleTime("2024-01-12T14:22:00"),
			UpdatedAt:   sampleTime("2024-01-15T12:30:00"),
			Tags:        []string{"search", "pagination", "ui"},
			Comments:    []models.Comment{},
			Attachments: []string{},
			ReproductionSteps: []string{
				"Perform a search with many results",
				"Navigate to page 2",
				"Compare results with page 1",
				"Navigate back and forth between pages",
			},
			Environment: "Chrome 120, Firefox 121",
			Version:     "2.1.3",
		},
		{
			ID:          "bug-00004",
			Seq:         4,
			Title:       "Email notifications contain broken image links",
			Description: "All email notifications sent to users contain broken image links for logos and icons.",
			Status:      models.StatusResolved,
			Priority:    models.PriorityLow,
			Category:    "Email",
			Assignee:    "Sophie Turner",
			Reporter:    "John Davis",
			CreatedAt:   sampleTime("2024-01-10T11:45:00"),
			UpdatedAt:   sampleTime("2024-01-14T15:20:00"),
			Tags:        []string{"email", "images", "notifications"},
			Comments: []models.Comment{
				sampleComment("bug-00004", "1", "Sophie Turner",
					"Fixed the image paths in email templates. All images now load properly.", "2024-01-14T15:20:00"),
			},
			Attachments: []string{"email-template-before.html", "email-template-after.html"},
			ReproductionSteps: []string{
				"Trigger any email notification",
				"Check email inbox",
				"Observe broken image icons",
			},
			Environment: "Email clients (Gmail, Outlook)",
			Version:     "2.1.2",
		},
		{
			ID:          "bug-00005",
			Seq:         5,
			Title:       "Dashboard charts not loading on slow connections",
			Description: "Analytics charts on the dashboard fail to load properly on slow internet connections.",
			Status:      models.StatusClosed,
			Priority:    models.PriorityMedium,
			Category:    "Dashboard",
			Assignee:    "Michael Zhang",
			Reporter:    "Amy Johnson",
			CreatedAt:   sampleTime("2024-01-08T16:30:00"),
			UpdatedAt:   sampleTime("2024-01-12T10:15:00"),
			Tags:        []string{"dashboard", "charts", "performance"},
			Comments: []models.Comment{
				sampleComment("bug-00005", "1", "Michael Zhang",
					"Implemented lazy loading and reduced chart bundle size. Issue resolved.", "2024-01-12T10:15:00"),
			},
			Attachments: []string{"performance-comparison.png"},
			ReproductionSteps: []string{
				"Throttle network to slow 3G",
				"Navigate to dashboard",
				"Observe chart loading behavior",
			},
			Environment: "All browsers with slow connection",
			Version:     "2.1.1",
		},
	}
}
