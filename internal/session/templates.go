// Package session implements the dialogue state machine for Poshbot.
//
// This file holds the fixed response templates and exit phrases. Template
// lookup is deterministic except for the fallback response, which is drawn
// uniformly at random from a small fixed set.
package session

import (
	"github.com/promibe/poshbot/internal/models"
)

// WelcomeMessage opens every conversation.
const WelcomeMessage = "Hello! Welcome to Poshem Technologies, a fair greeting will be okay for us to attend to you:"

// farewellMessage is sent when the user ends the session with an exit phrase.
const farewellMessage = "Thanks for choosing Poshem Technologies Institution. You'll get a mail from us shortly."

// retryMessage is the apology prompt for a failed or incomplete extraction.
const retryMessage = "Sorry, I couldn't extract your enrollment details. Please try again."

// dateFormatMessage is the format hint emitted when the date of birth does
// not normalize. Per policy this ends the session.
const dateFormatMessage = "Invalid date format. Please try a format like '8th January 1995'."

// retriesExhaustedMessage ends the session when a configured retry cap is hit.
const retriesExhaustedMessage = "I still couldn't extract your enrollment details. Please start a new session and try again."

// exitPhrases terminate the session from any state, case-insensitively.
var exitPhrases = map[string]bool{
	"i am done": true,
	"exit":      true,
	"quit":      true,
}

// fallbackResponses is the fixed set the fallback reply is drawn from.
var fallbackResponses = []string{
	"Sorry, I didn't quite understand that. Can you rephrase, read my previous prompt and respond accordingly?",
	"Hmm, I'm not sure what you mean. Try asking about enrollment or pricing, read my previous prompt and respond accordingly.",
	"Let's try that again. Ask about courses, prices, or tracking progress, read my previous prompt and respond accordingly",
}

// intentResponses maps intent labels to their fixed response templates.
var intentResponses = map[int]string{
	models.IntentGreetings: "Nice, you are very much welcome to Poshem! What do you want to do?\n" +
		"- Do want to enroll/register for a course?\n- Check the price of our courses?\n- Confirm your registered courses?",
	models.IntentEnrollment: "Kindly request for the course you want to register in this format:\n" +
		"(e.g.) I am Promise, born on (YYYY-MM-DD), B-Tech Computer Science.\n" +
		"phone number: 07063083925.\n" +
		"email address: promise@x.com\n" +
		"I want to learn Excel.",
	models.IntentPricing:  "Our pricing varies by course. Here is the breakdown...",
	models.IntentTracking: "To track your course, kindly let me know your ID.",
}
