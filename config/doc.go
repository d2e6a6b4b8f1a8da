// Package config loads process settings and collection sources.
//
// Settings come from the environment, optionally seeded from a .env file
// with godotenv. Sources (feeds and newsletter senders) come from a YAML
// file:
//
//	feeds:
//	  - name: LangChain Blog
//	    url: https://blog.langchain.dev/rss/
//	    full_text: true
//	senders:
//	  - name: TLDR AI
//	    email: dan@tldrnewsletter.com
package config
