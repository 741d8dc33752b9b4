package thinking

import (
	"fmt"
	"strings"

	"github.com/hupe1980/innerthoughts/core"
	"github.com/hupe1980/innerthoughts/internal/util"
)

const roleInstructions = `You are playing a role as a participant in an online multi-party conversation. Your name in the conversation is {{.AgentName}}.
{{if .Scene}}The conversation is set as follows: {{.Scene}}
{{end}}You will generate thoughts in JSON format.`

const system1Prompt = `Your goal is to have a natural conversation with the other participants and get to know each other.
You will be simulating the process of forming a thought in parallel with the conversation. Specifically, use fast intuitive thinking.
Fast intuitive thinking is characterized by quick, automatic responses rather than deep thinking or recalling memories.
For example, backchanneling, expressing acknowledgement, expressing surprise, showing interest and attention, a spontaneous reaction to a joke, or a reflexive response to a question.
Form ONE thought that reflects a generic and intuitive reaction to the ongoing conversation. It should be succinct, less than 15 words.

Below are the previous utterances in the conversation:
{{.History}}

Respond with a JSON object in the following format:
{"thought": "Your generated thought here"}`

const system2Prompt = `Your goal is to have a natural conversation with the other participants and get to know each other.
You will be simulating the process of forming thoughts in parallel with the conversation.
You are provided contexts including the conversation history, salient memories of yourself, and previous thoughts.
You should leverage or be inspired by the one or more contexts provided that are most likely to come up at this point.

Form {{.Count}} thought(s) that you would most likely have at this point in the conversation, given the context.
Each thought should be as succinct as possible, and be less than 15 words.
Ensure these thoughts are diverse and distinct; make sure each thought is unique and not a repetition of another thought in the same batch.
Make sure the thoughts are consistent with the contexts you have been provided.

For each thought, provide the stimuli from the contexts provided. Stimuli can be:
- Conversation History: CON#id
- Salient Memories: MEM#id
- Previous Thoughts: THO#id
where id is the identifier, for example MEM#3, THO#2, CON#14.
You can have MORE THAN ONE stimulus for each thought.

Below are the contexts of the given conversation:
Conversation History:
{{.History}}
Salient Memories:
{{.Memories}}
Previous Thoughts:
{{.Thoughts}}

Respond with a JSON object in the following format:
{"thoughts": [{"content": "The thought content here", "stimuli": ["CON#0", "MEM#1"]}]}`

const evaluatePrompt = `<Instruction>
You will be given:
(1) A conversation between {{.ParticipantNames}}
(2) A thought formed by {{.AgentName}} at this moment of the conversation.
(3) The salient memories of {{.AgentName}} that include objectives, knowledge, and interests from long-term memory.

Your task is to rate the thought on one metric.

<Evaluation Criteria>
Intrinsic Motivation to Engage (1-5) - If you were {{.AgentName}}, how strongly and likely would you want to express this thought and participate in the conversation at this moment?
- 1 (Very Low): {{.AgentName}} is unlikely to express the thought. They would not express it even if there is a long pause or an invitation to speak.
- 2 (Low): {{.AgentName}} would only consider speaking if there is a noticeable pause and no one else seems to be taking the turn.
- 3 (Neutral): {{.AgentName}} is fine with either expressing the thought or staying silent and letting others speak.
- 4 (High): {{.AgentName}} has a strong desire to participate immediately after the current speaker finishes their turn.
- 5 (Very High): {{.AgentName}} will even interrupt other people who are speaking to do so.

<Evaluation Steps>
1. Read the previous conversation and the thought carefully.
2. Read the long-term memory carefully.
3. Consider internal factors (relevance to memory, information gap, new information, expected impact, urgency) and external social factors (coherence to the last utterance, originality, balance of participation, what other participants might want to say).
4. Rate the thought on a scale of 1-5 according to the Evaluation Criteria.

<Context>
{{if .Scene}}Conversation Setting: {{.Scene}}
{{end}}Conversation History:
{{.History}}
Long-Term Memory:
{{.Memories}}
Thought: {{.Thought}}

Respond with a JSON object in the following format:
{"reasoning": "Your reasoning here", "rating": 3}

Note: The rating must be an integer between 1 and 5.`

const articulatePrompt = `Your goal is to have a natural conversation with the other participants.

Articulate what you would say based on the current thought you have, as if you were to speak next in the conversation.
Be as concise and succinct as possible, in under 15 words. Do not try to be too clever or too verbose.
Keep it in ONE SINGLE sentence as much as possible and leave room for others to respond.
DO NOT mention the other party's name in your response unless absolutely necessary.
DO NOT be repetitive and repeat what previous speakers have said.
Make sure that the response sounds human-like and natural, something one would say in an online chat.
{{.ToneHint}}

Current thought: {{.Thought}}

Respond with a JSON object in the following format:
{"articulation": "The text here"}`

const proactiveToneHint = `Be direct and assertive: state your point plainly and move the conversation forward.`
const neutralToneHint = `Keep a relaxed, casual register.`

// historyText renders the last events as "Name: content" lines.
func historyText(events []core.Event) string {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "%s: %s\n", ev.Sender, ev.Content)
	}
	return b.String()
}

// labeledHistoryText renders history lines prefixed with CON# references so
// generated thoughts can cite them as stimuli.
func labeledHistoryText(events []core.Event) string {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "CON#%s: %s: %s\n", ev.ID, ev.Sender, ev.Content)
	}
	return b.String()
}

func labeledObjects(prefix string, objs []core.MentalObject) string {
	var b strings.Builder
	for _, obj := range objs {
		fmt.Fprintf(&b, "%s#%s: %s\n", prefix, obj.ID(), obj.Text())
	}
	return b.String()
}

func bulletList(objs []core.MentalObject) string {
	var b strings.Builder
	for _, obj := range objs {
		fmt.Fprintf(&b, "- %s\n", obj.Text())
	}
	return b.String()
}

func renderPrompt(tmpl string, state map[string]any) (string, error) {
	out, err := util.RenderTemplate(tmpl, state)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}
