// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package openai provides the vision categorizer using OpenAI-compatible APIs.
//
// This package implements the ai.Provider interface using the langchaingo
// library to talk to OpenAI or an OpenAI-compatible service with image input
// (such as Ollama serving a llava model). Images are sent inline as data URLs
// and the model answers with a JSON object listing taxonomy paths.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithModel("gpt-4o"))
//	provider, err := openai.NewProvider(ctx, config, ai.EnvCredential())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	suggestion, err := provider.Categorizer().Categorize(ctx, ai.Request{
//	    Image:    preview,
//	    MIMEType: "image/jpeg",
//	    Taxonomy: taxonomy.Default(),
//	})
package openai
